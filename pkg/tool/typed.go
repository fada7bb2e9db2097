package tool

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sidekick/pkg/model"
)

// Typed adapts a function taking a Go struct into a Tool. The argument
// schema is inferred from In.
type Typed[In, Out any] struct {
	spec       *Spec
	actionType model.ActionType
	run        func(ctx context.Context, actx *model.AgentContext, input *In) (*Out, error)
	report     func(out *Out) *model.ExecutedAction
}

var _ Tool = (*Typed[struct{}, struct{}])(nil)

func NewTyped[In, Out any](
	name, description string,
	actionType model.ActionType,
	run func(ctx context.Context, actx *model.AgentContext, input *In) (*Out, error),
	report func(out *Out) *model.ExecutedAction,
) (*Typed[In, Out], error) {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to infer tool schema", goerr.V("tool", name))
	}
	// unknown arguments are ignored when decoding
	schema.AdditionalProperties = nil

	return &Typed[In, Out]{
		spec: &Spec{
			Name:        name,
			Description: description,
			Schema:      schema,
		},
		actionType: actionType,
		run:        run,
		report:     report,
	}, nil
}

// WithEnum restricts a string property to values
func (x *Typed[In, Out]) WithEnum(property string, values ...string) *Typed[In, Out] {
	prop, ok := x.spec.Schema.Properties[property]
	if !ok {
		panic("tool " + x.spec.Name + " has no property " + property)
	}
	prop.Enum = make([]any, len(values))
	for i, v := range values {
		prop.Enum[i] = v
	}
	return x
}

func (x *Typed[In, Out]) Spec() *Spec {
	return x.spec
}

func (x *Typed[In, Out]) ActionType() model.ActionType {
	return x.actionType
}

func (x *Typed[In, Out]) Execute(ctx context.Context, actx *model.AgentContext, args json.RawMessage) (*Outcome, error) {
	var input In
	if len(args) > 0 {
		if err := json.Unmarshal(args, &input); err != nil {
			return nil, goerr.Wrap(err, "failed to decode arguments", goerr.V("tool", x.spec.Name))
		}
	}

	out, err := x.run(ctx, actx, &input)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Payload: out,
		Action:  x.report(out),
	}, nil
}
