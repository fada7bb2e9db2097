package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sidekick/pkg/utils/logging"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input  string
		expect slog.Level
		fail   bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			level, err := logging.ParseLevel(tc.input)
			if tc.fail {
				gt.True(t, errors.Is(err, logging.ErrInvalidLevel))
				return
			}
			gt.NoError(t, err)
			gt.Equal(t, level, tc.expect)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := logging.ParseFormat("JSON")
	gt.NoError(t, err)
	gt.Equal(t, f, logging.FormatJSON)

	f, err = logging.ParseFormat("")
	gt.NoError(t, err)
	gt.Equal(t, f, logging.FormatConsole)

	_, err = logging.ParseFormat("xml")
	gt.True(t, errors.Is(err, logging.ErrInvalidFormat))
}

func TestConsoleLevelFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New(buf, slog.LevelWarn, logging.FormatConsole)

	logger.Info("quiet message")
	logger.Warn("loud message", "company", "Acme")

	out := buf.String()
	gt.S(t, out).NotContains("quiet message")
	gt.S(t, out).Contains("loud message")
	gt.S(t, out).Contains("Acme")
}

func TestJSONCloudLoggingFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New(buf, slog.LevelDebug, logging.FormatJSON)

	logger.Warn("tool execution failed", "tool", "create_note")

	var entry map[string]any
	gt.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	gt.Equal(t, entry["severity"], any("WARNING"))
	gt.Equal(t, entry["message"], any("tool execution failed"))
	gt.Equal(t, entry["tool"], any("create_note"))
	_, hasLevel := entry["level"]
	gt.False(t, hasLevel)
}

func TestWithAndFrom(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New(buf, slog.LevelInfo, logging.FormatConsole)

	ctx := logging.With(context.Background(), logger)
	logging.From(ctx).Info("from context")
	gt.S(t, buf.String()).Contains("from context")
}

func TestFromFallsBackToDefault(t *testing.T) {
	original := logging.Default()
	defer logging.SetDefault(original)

	buf := &bytes.Buffer{}
	logging.SetDefault(logging.New(buf, slog.LevelInfo, logging.FormatConsole))

	logging.From(context.Background()).Info("default logger")
	gt.S(t, buf.String()).Contains("default logger")
}
