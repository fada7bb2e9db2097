package adapter

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// ClaudeClient implements LLM with the Anthropic Messages API. genai
// contents are translated to messages and tool_use blocks back to function
// calls.
type ClaudeClient struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

var _ LLM = (*ClaudeClient)(nil)

const DefaultClaudeModel = anthropic.ModelClaudeSonnet4_5

type ClaudeOption func(*ClaudeClient)

func WithClaudeModel(model string) ClaudeOption {
	return func(c *ClaudeClient) {
		c.model = anthropic.Model(model)
	}
}

func WithClaudeMaxTokens(n int64) ClaudeOption {
	return func(c *ClaudeClient) {
		c.maxTokens = n
	}
}

// NewClaude creates a new Claude API client
func NewClaude(apiKey string, opts ...ClaudeOption) *ClaudeClient {
	c := &ClaudeClient{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     DefaultClaudeModel,
		maxTokens: 4096,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ClaudeClient) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	params, err := buildClaudeParams(c.model, c.maxTokens, contents, config)
	if err != nil {
		return nil, err
	}

	msg, err := c.client.Messages.New(ctx, *params)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create claude message", goerr.V("model", c.model))
	}

	return convertClaudeMessage(msg)
}

func buildClaudeParams(model anthropic.Model, maxTokens int64, contents []*genai.Content, config *genai.GenerateContentConfig) (*anthropic.MessageNewParams, error) {
	params := &anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: maxTokens,
	}

	if config != nil {
		if config.SystemInstruction != nil {
			var texts []string
			for _, p := range config.SystemInstruction.Parts {
				if p.Text != "" {
					texts = append(texts, p.Text)
				}
			}
			if len(texts) > 0 {
				params.System = []anthropic.TextBlockParam{{Text: strings.Join(texts, "\n")}}
			}
		}

		for _, t := range config.Tools {
			for _, fd := range t.FunctionDeclarations {
				params.Tools = append(params.Tools, convertFunctionDeclaration(fd))
			}
		}

		if config.Temperature != nil {
			params.Temperature = anthropic.Float(float64(*config.Temperature))
		}
	}

	for _, content := range contents {
		blocks, err := convertParts(content.Parts)
		if err != nil {
			return nil, err
		}
		if len(blocks) == 0 {
			continue
		}

		if content.Role == genai.RoleModel {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(blocks...))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(blocks...))
		}
	}

	return params, nil
}

func convertParts(parts []*genai.Part) ([]anthropic.ContentBlockParamUnion, error) {
	var blocks []anthropic.ContentBlockParamUnion
	for _, p := range parts {
		switch {
		case p.FunctionCall != nil:
			args := p.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(p.FunctionCall.ID, args, p.FunctionCall.Name))

		case p.FunctionResponse != nil:
			data, err := json.Marshal(p.FunctionResponse.Response)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to marshal function response",
					goerr.V("name", p.FunctionResponse.Name))
			}
			_, isError := p.FunctionResponse.Response["error"]
			blocks = append(blocks, anthropic.NewToolResultBlock(p.FunctionResponse.ID, string(data), isError))

		case p.Text != "" && !p.Thought:
			blocks = append(blocks, anthropic.NewTextBlock(p.Text))
		}
	}
	return blocks, nil
}

func convertFunctionDeclaration(fd *genai.FunctionDeclaration) anthropic.ToolUnionParam {
	schema := anthropic.ToolInputSchemaParam{}
	if fd.Parameters != nil {
		props := make(map[string]any, len(fd.Parameters.Properties))
		for name, prop := range fd.Parameters.Properties {
			props[name] = genaiSchemaToMap(prop)
		}
		schema.Properties = props
		schema.Required = fd.Parameters.Required
	}

	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        fd.Name,
			Description: anthropic.String(fd.Description),
			InputSchema: schema,
		},
	}
}

// genaiSchemaToMap renders a genai.Schema as a JSON Schema object
func genaiSchemaToMap(s *genai.Schema) map[string]any {
	if s == nil {
		return map[string]any{}
	}

	m := map[string]any{}
	if s.Type != "" && s.Type != genai.TypeUnspecified {
		m["type"] = strings.ToLower(string(s.Type))
	}
	if s.Description != "" {
		m["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		m["enum"] = s.Enum
	}
	if s.Items != nil {
		m["items"] = genaiSchemaToMap(s.Items)
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = genaiSchemaToMap(prop)
		}
		m["properties"] = props
	}
	if len(s.Required) > 0 {
		m["required"] = s.Required
	}
	return m
}

func convertClaudeMessage(msg *anthropic.Message) (*genai.GenerateContentResponse, error) {
	content := &genai.Content{Role: genai.RoleModel}

	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			content.Parts = append(content.Parts, &genai.Part{Text: block.Text})

		case "tool_use":
			args := map[string]any{}
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &args); err != nil {
					return nil, goerr.Wrap(err, "failed to unmarshal tool input", goerr.V("name", block.Name))
				}
			}
			content.Parts = append(content.Parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					ID:   block.ID,
					Name: block.Name,
					Args: args,
				},
			})
		}
	}

	finish := genai.FinishReasonStop
	if msg.StopReason == anthropic.StopReasonMaxTokens {
		finish = genai.FinishReasonMaxTokens
	}

	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content:      content,
				FinishReason: finish,
			},
		},
	}, nil
}
