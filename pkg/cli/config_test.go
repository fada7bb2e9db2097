package cli

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sidekick/pkg/usecase/chat"
)

func TestValidateAgent(t *testing.T) {
	testCases := []struct {
		name          string
		maxIterations int64
		historyLimit  int64
		wantErr       string
	}{
		{"defaults", chat.DefaultMaxIterations, chat.DefaultHistoryLimit, ""},
		{"single iteration", 1, 0, ""},
		{"zero iterations", 0, 0, "max-iterations must be at least 1"},
		{"negative iterations", -3, 0, "max-iterations must be at least 1"},
		{"negative history limit", 10, -1, "history-limit must not be negative"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config{maxIterations: tc.maxIterations, historyLimit: tc.historyLimit}
			err := cfg.validateAgent()
			if tc.wantErr == "" {
				gt.NoError(t, err)
				return
			}
			gt.Error(t, err)
			gt.S(t, err.Error()).Contains(tc.wantErr)
		})
	}
}

func TestNewAgentRejectsZeroIterations(t *testing.T) {
	cfg := config{maxIterations: 0, provider: providerGemini}
	_, err := cfg.newAgent(context.Background(), nil)
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("max-iterations must be at least 1")
}
