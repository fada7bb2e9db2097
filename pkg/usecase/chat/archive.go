package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sidekick/pkg/adapter"
	"github.com/m-mizutani/sidekick/pkg/model"
)

func transcriptKey(id model.TranscriptID) string {
	return "transcripts/" + string(id) + ".json"
}

// saveTranscript writes the full turn including tool traffic to storage
func saveTranscript(ctx context.Context, storage adapter.Storage, actx *model.AgentContext, message string, result *Result, now time.Time) (model.TranscriptID, error) {
	transcript := &model.Transcript{
		ID:         model.NewTranscriptID(),
		SalesID:    actx.SalesID,
		Message:    message,
		Reply:      result.Message,
		Actions:    result.Actions,
		Iterations: result.Iterations,
		Contents:   result.Contents,
		CreatedAt:  now,
	}

	data, err := json.Marshal(transcript)
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal transcript", goerr.V("id", transcript.ID))
	}

	if err := storage.Put(ctx, transcriptKey(transcript.ID), data); err != nil {
		return "", goerr.Wrap(err, "failed to put transcript", goerr.V("id", transcript.ID))
	}

	return transcript.ID, nil
}

// LoadTranscript reads an archived turn back from storage
func LoadTranscript(ctx context.Context, storage adapter.Storage, id model.TranscriptID) (*model.Transcript, error) {
	if id == "" {
		return nil, goerr.New("transcript ID is required")
	}

	data, err := storage.Get(ctx, transcriptKey(id))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get transcript", goerr.V("id", id))
	}

	var transcript model.Transcript
	if err := json.Unmarshal(data, &transcript); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal transcript", goerr.V("id", id))
	}

	return &transcript, nil
}
