package tool

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/sidekick/pkg/model"
)

// Spec describes a tool to the language model
type Spec struct {
	Name        string
	Description string
	// Schema is the JSON Schema of the argument object
	Schema *jsonschema.Schema
}

// Outcome is the result of a successful tool call. Payload is returned to the
// model and Action is recorded in the turn's action log.
type Outcome struct {
	Payload any
	Action  *model.ExecutedAction
}

// Tool represents an operation that can be called by the LLM
type Tool interface {
	Spec() *Spec

	// ActionType tags the ExecutedAction when the call fails
	ActionType() model.ActionType

	// Execute runs the tool with arguments already validated against Spec().Schema
	Execute(ctx context.Context, actx *model.AgentContext, args json.RawMessage) (*Outcome, error)
}

// Guard can reject a tool call after its arguments are validated
type Guard interface {
	Check(ctx context.Context, actx *model.AgentContext, name string, args map[string]any) error
}
