package model

import (
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

type TranscriptID string

func NewTranscriptID() TranscriptID {
	return TranscriptID(uuid.New().String())
}

// Transcript is the archived record of one agent turn including the internal
// tool call and tool result contents that are not returned to the caller.
type Transcript struct {
	ID         TranscriptID      `json:"id"`
	SalesID    SalesID           `json:"sales_id"`
	Message    string            `json:"message"`
	Reply      string            `json:"reply"`
	Actions    []*ExecutedAction `json:"actions"`
	Iterations int               `json:"iterations"`
	Contents   []*genai.Content  `json:"contents"`
	CreatedAt  time.Time         `json:"created_at"`
}
