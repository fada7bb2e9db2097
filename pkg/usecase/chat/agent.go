package chat

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sidekick/pkg/adapter"
	"github.com/m-mizutani/sidekick/pkg/model"
	"github.com/m-mizutani/sidekick/pkg/tool"
	"github.com/m-mizutani/sidekick/pkg/utils/logging"
	"google.golang.org/genai"
)

const DefaultMaxIterations = 10

// Agent runs the tool calling loop for one chat turn. An Agent holds no
// per-request state and can be shared between requests.
type Agent struct {
	llm      adapter.LLM
	registry *tool.Registry
	storage  adapter.Storage

	maxIterations int
	businessName  string
	historyLimit  int
	now           func() time.Time
}

type Option func(*Agent)

// WithStorage enables transcript archiving
func WithStorage(storage adapter.Storage) Option {
	return func(x *Agent) {
		x.storage = storage
	}
}

func WithMaxIterations(n int) Option {
	return func(x *Agent) {
		x.maxIterations = n
	}
}

func WithBusinessName(name string) Option {
	return func(x *Agent) {
		x.businessName = name
	}
}

// WithHistoryLimit sets the JSON size in bytes above which prior history is
// summarized before the turn starts. Zero disables summarization.
func WithHistoryLimit(n int) Option {
	return func(x *Agent) {
		x.historyLimit = n
	}
}

func WithClock(now func() time.Time) Option {
	return func(x *Agent) {
		x.now = now
	}
}

func New(llm adapter.LLM, registry *tool.Registry, opts ...Option) *Agent {
	x := &Agent{
		llm:           llm,
		registry:      registry,
		maxIterations: DefaultMaxIterations,
		businessName:  DefaultBusinessName,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Result is the outcome of one turn
type Result struct {
	Message string
	Actions []*model.ExecutedAction

	// Contents is the model-facing transcript including tool calls and
	// tool results. It is not returned to callers.
	Contents   []*genai.Content
	Iterations int

	// TranscriptID is set when the turn was archived
	TranscriptID model.TranscriptID
}

// Run processes message with the prior history. Tool failures are recorded
// in Result.Actions; only model errors abort the turn.
func (x *Agent) Run(ctx context.Context, actx *model.AgentContext, history []model.Message, message string) (*Result, error) {
	logger := logging.From(ctx)

	systemPrompt, err := buildSystemPrompt(x.businessName, x.now())
	if err != nil {
		return nil, err
	}

	thinkingBudget := int32(0)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, ""),
		Tools:             x.registry.Specs(),
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  &thinkingBudget,
		},
	}

	contents := model.ToContents(history)
	if x.historyLimit > 0 && historySize(contents) > x.historyLimit {
		compressed, err := compressHistory(ctx, x.llm, contents)
		if err != nil {
			// keep the full history and let the model call fail if it is really too large
			logger.Warn("failed to compress history", "error", err)
		} else {
			logger.Info("compressed history", "before", len(contents), "after", len(compressed))
			contents = compressed
		}
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	result := &Result{}
	var lastText string
	done := false

	for result.Iterations < x.maxIterations {
		result.Iterations++
		logger.Debug("calling model", "iteration", result.Iterations)

		resp, err := x.llm.GenerateContent(ctx, contents, config)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to generate content", goerr.V("iteration", result.Iterations))
		}

		reply := firstContent(resp)
		text, calls := splitParts(reply)
		if text != "" {
			lastText = text
		}

		if len(calls) == 0 {
			lastText = text
			if reply != nil && len(reply.Parts) > 0 {
				contents = append(contents, reply)
			}
			done = true
			break
		}

		contents = append(contents, reply)

		toolResults := &genai.Content{Role: genai.RoleUser}
		for _, call := range calls {
			payload, action := x.registry.Dispatch(ctx, actx, call.Name, call.Args)
			result.Actions = append(result.Actions, action)
			toolResults.Parts = append(toolResults.Parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       call.ID,
					Name:     call.Name,
					Response: toResponse(payload, action),
				},
			})
		}
		contents = append(contents, toolResults)
	}

	if !done {
		logger.Warn("iteration limit reached", "limit", x.maxIterations, "actions", len(result.Actions))
	}

	result.Message = lastText
	result.Contents = contents

	if x.storage != nil {
		id, err := saveTranscript(ctx, x.storage, actx, message, result, x.now())
		if err != nil {
			logger.Error("failed to archive transcript", "error", err)
		} else {
			result.TranscriptID = id
			logger.Debug("transcript archived", "id", id)
		}
	}

	return result, nil
}

func firstContent(resp *genai.GenerateContentResponse) *genai.Content {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	content := resp.Candidates[0].Content
	if content.Role == "" {
		content.Role = genai.RoleModel
	}
	return content
}

// splitParts returns the joined text and the function calls of a model reply
func splitParts(content *genai.Content) (string, []*genai.FunctionCall) {
	if content == nil {
		return "", nil
	}

	var texts []string
	var calls []*genai.FunctionCall
	for _, part := range content.Parts {
		switch {
		case part.FunctionCall != nil:
			calls = append(calls, part.FunctionCall)
		case part.Text != "" && !part.Thought:
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n"), calls
}

// toResponse shapes a dispatch payload as a function response object
func toResponse(payload any, action *model.ExecutedAction) map[string]any {
	if !action.Success {
		return map[string]any{"error": action.Error}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return map[string]any{"error": "failed to encode tool result: " + err.Error()}
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return map[string]any{"error": "failed to encode tool result: " + err.Error()}
	}
	return map[string]any{"result": v}
}
