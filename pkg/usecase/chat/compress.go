package chat

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sidekick/pkg/adapter"
	"google.golang.org/genai"
)

const (
	compressionRatio = 0.7 // Compress first 70% by byte size

	// DefaultHistoryLimit is the history size in bytes that triggers summarization
	DefaultHistoryLimit = 512 * 1024
)

// contentSize calculates the byte size of a content by JSON marshaling
func contentSize(content *genai.Content) int {
	data, err := json.Marshal(content)
	if err != nil {
		return 0
	}
	return len(data)
}

func historySize(contents []*genai.Content) int {
	total := 0
	for _, c := range contents {
		total += contentSize(c)
	}
	return total
}

// compressHistory replaces the oldest part of the conversation with a
// summary generated by the model
func compressHistory(ctx context.Context, llm adapter.LLM, contents []*genai.Content) ([]*genai.Content, error) {
	if len(contents) == 0 {
		return nil, goerr.New("history is empty")
	}

	byteSizes := make([]int, len(contents))
	totalBytes := 0
	for i, content := range contents {
		byteSizes[i] = contentSize(content)
		totalBytes += byteSizes[i]
	}

	compressThreshold := int(float64(totalBytes) * compressionRatio)

	cumulativeBytes := 0
	compressIndex := 0
	for i, size := range byteSizes {
		cumulativeBytes += size
		if cumulativeBytes >= compressThreshold {
			compressIndex = i + 1
			break
		}
	}

	if compressIndex == 0 || compressIndex >= len(contents) {
		return nil, goerr.New("insufficient content to compress")
	}

	toCompress := contents[:compressIndex]
	toKeep := contents[compressIndex:]

	summary, err := summarizeContents(ctx, llm, toCompress)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to summarize contents")
	}

	// the summary and a following user message would break role alternation
	// for some models, so fold a leading user entry into the summary turn
	summaryText := "=== Previous Conversation Summary ===\n\n" + summary
	compressed := []*genai.Content{genai.NewContentFromText(summaryText, genai.RoleUser)}
	if toKeep[0].Role == genai.RoleUser {
		compressed[0].Parts = append(compressed[0].Parts, toKeep[0].Parts...)
		toKeep = toKeep[1:]
	}

	return append(compressed, toKeep...), nil
}

func summarizeContents(ctx context.Context, llm adapter.LLM, contents []*genai.Content) (string, error) {
	request := make([]*genai.Content, 0, len(contents)+1)
	request = append(request, contents...)
	request = append(request, genai.NewContentFromText(summarizePromptRaw, genai.RoleUser))

	thinkingBudget := int32(0)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText("You are an assistant that keeps CRM chat sessions short.", ""),
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  &thinkingBudget,
		},
	}

	resp, err := llm.GenerateContent(ctx, request, config)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate summary")
	}

	text, _ := splitParts(firstContent(resp))
	text = strings.TrimSpace(text)
	if text == "" {
		return "", goerr.New("empty summary generated")
	}

	return text, nil
}
