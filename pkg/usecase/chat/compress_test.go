package chat_test

import (
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sidekick/pkg/model"
	"github.com/m-mizutani/sidekick/pkg/usecase/chat"
	"google.golang.org/genai"
)

func TestCompressHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("empty history", func(t *testing.T) {
		llm := &scriptedLLM{t: t}
		_, err := chat.CompressHistory(ctx, llm, []*genai.Content{})
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("history is empty")
	})

	t.Run("single message cannot be compressed", func(t *testing.T) {
		llm := &scriptedLLM{t: t}
		_, err := chat.CompressHistory(ctx, llm, []*genai.Content{
			genai.NewContentFromText("only one", genai.RoleUser),
		})
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("insufficient content to compress")
	})

	t.Run("successful compression", func(t *testing.T) {
		contents := []*genai.Content{
			genai.NewContentFromText("Met Dr. Patel at Lakeside Clinic", genai.RoleUser),
			genai.NewContentFromText("Created Lakeside Clinic and Dr. Patel", genai.RoleModel),
			genai.NewContentFromText("She wants a demo in March", genai.RoleUser),
			genai.NewContentFromText("Created a task for the demo", genai.RoleModel),
			genai.NewContentFromText("Thanks", genai.RoleUser),
			genai.NewContentFromText("You're welcome", genai.RoleModel),
		}

		llm := &scriptedLLM{t: t, steps: []step{
			func(t *testing.T, req []*genai.Content, config *genai.GenerateContentConfig) *genai.GenerateContentResponse {
				gt.A(t, config.Tools).Length(0)
				gt.S(t, req[len(req)-1].Parts[0].Text).Contains("Summarize the conversation")
				return modelReply(&genai.Part{Text: "- Lakeside Clinic and Dr. Patel exist\n- demo in March"})
			},
		}}

		compressed, err := chat.CompressHistory(ctx, llm, contents)
		gt.NoError(t, err)
		gt.A(t, compressed).Longer(0)
		gt.True(t, len(compressed) < len(contents))
		gt.Equal(t, compressed[0].Role, genai.RoleUser)
		gt.S(t, compressed[0].Parts[0].Text).Contains("=== Previous Conversation Summary ===")
		gt.S(t, compressed[0].Parts[0].Text).Contains("demo in March")
		gt.Equal(t, compressed[len(compressed)-1].Parts[0].Text, "You're welcome")

		for i := 1; i < len(compressed); i++ {
			gt.NotEqual(t, compressed[i].Role, compressed[i-1].Role)
		}
	})

	t.Run("empty summary fails", func(t *testing.T) {
		contents := []*genai.Content{
			genai.NewContentFromText(strings.Repeat("Met Dr. Patel at Lakeside Clinic. ", 40), genai.RoleUser),
			genai.NewContentFromText("Created Lakeside Clinic", genai.RoleModel),
			genai.NewContentFromText("Thanks", genai.RoleUser),
		}
		llm := &scriptedLLM{t: t, steps: []step{say("   ")}}

		_, err := chat.CompressHistory(ctx, llm, contents)
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("empty summary generated")
	})
}

func TestRunCompressesLongHistory(t *testing.T) {
	var history []model.Message
	for i := 0; i < 20; i++ {
		history = append(history,
			model.Message{Role: model.RoleUser, Content: strings.Repeat("meeting notes ", 50)},
			model.Message{Role: model.RoleAssistant, Content: strings.Repeat("logged ", 50)},
		)
	}

	llm := &scriptedLLM{t: t, steps: []step{
		say("- twenty meetings were logged"),
		func(t *testing.T, contents []*genai.Content, config *genai.GenerateContentConfig) *genai.GenerateContentResponse {
			gt.True(t, len(contents) < len(history)+1)
			gt.S(t, contents[0].Parts[0].Text).Contains("twenty meetings were logged")
			gt.Equal(t, contents[len(contents)-1].Parts[0].Text, "anything else?")
			return modelReply(&genai.Part{Text: "Nothing pending."})
		},
	}}

	result, err := newAgent(t, llm, newRegistry(t, newSQLite(t)), chat.WithHistoryLimit(4096)).
		Run(context.Background(), model.NewAgentContext(1, 0), history, "anything else?")
	gt.NoError(t, err)
	gt.Equal(t, result.Message, "Nothing pending.")
	gt.Equal(t, result.Iterations, 1)
	gt.Equal(t, llm.calls, 2)
}
