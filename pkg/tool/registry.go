package tool

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sidekick/pkg/model"
	"github.com/m-mizutani/sidekick/pkg/utils/logging"
	"google.golang.org/genai"
)

var (
	ErrToolNotFound     = goerr.New("tool not found")
	ErrInvalidArguments = goerr.New("invalid arguments")
	ErrDuplicatedTool   = goerr.New("duplicated tool name")
)

// Registry manages available tools for the LLM
type Registry struct {
	tools    map[string]Tool
	allTools []Tool
	schemas  map[string]*jsonschema.Resolved
	spec     *genai.Tool
	guard    Guard
}

// New creates a new tool registry with the given tools. Declarations keep
// the given order.
func New(tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools:    make(map[string]Tool),
		allTools: tools,
		schemas:  make(map[string]*jsonschema.Resolved),
		spec:     &genai.Tool{},
	}

	for _, t := range tools {
		spec := t.Spec()
		if _, ok := r.tools[spec.Name]; ok {
			return nil, goerr.Wrap(ErrDuplicatedTool, "tool is registered twice", goerr.V("name", spec.Name))
		}

		resolved, err := spec.Schema.Resolve(nil)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to resolve tool schema", goerr.V("name", spec.Name))
		}

		params, err := convertJSONSchemaToGenai(spec.Schema)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert tool schema", goerr.V("name", spec.Name))
		}

		r.tools[spec.Name] = t
		r.schemas[spec.Name] = resolved
		r.spec.FunctionDeclarations = append(r.spec.FunctionDeclarations, &genai.FunctionDeclaration{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  params,
		})
	}

	return r, nil
}

// SetGuard installs a check that runs before every tool execution
func (r *Registry) SetGuard(g Guard) {
	r.guard = g
}

// Specs returns all tool specifications for function calling
func (r *Registry) Specs() []*genai.Tool {
	return []*genai.Tool{r.spec}
}

// Tools returns registered tools in declaration order
func (r *Registry) Tools() []Tool {
	return r.allTools
}

// ActionType returns the failure tag for a tool name
func (r *Registry) ActionType(name string) model.ActionType {
	if t, ok := r.tools[name]; ok {
		return t.ActionType()
	}
	return model.ActionUnknownTool
}

// Execute validates args and runs the named tool
func (r *Registry) Execute(ctx context.Context, actx *model.AgentContext, name string, args map[string]any) (*Outcome, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, goerr.Wrap(ErrToolNotFound, "Unknown tool: "+name, goerr.V("name", name))
	}

	args = dropNulls(args)
	dropUnsetEnums(args, t.Spec().Schema)
	if err := r.schemas[name].Validate(args); err != nil {
		return nil, goerr.Wrap(ErrInvalidArguments, err.Error(), goerr.V("name", name))
	}

	if r.guard != nil {
		if err := r.guard.Check(ctx, actx, name, args); err != nil {
			return nil, err
		}
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal arguments", goerr.V("name", name))
	}

	return t.Execute(ctx, actx, raw)
}

// Dispatch runs one tool call and never fails. Errors become a failed
// ExecutedAction and an error payload for the model.
func (r *Registry) Dispatch(ctx context.Context, actx *model.AgentContext, name string, args map[string]any) (any, *model.ExecutedAction) {
	logger := logging.From(ctx)

	outcome, err := r.Execute(ctx, actx, name, args)
	if err != nil {
		logger.Warn("tool execution failed", "tool", name, "error", err)
		action := model.FailedAction(r.ActionType(name), name, err)
		return map[string]any{"error": action.Error}, action
	}

	action := outcome.Action
	if action.ID == "" {
		action.ID = model.NewActionID()
	}
	action.Success = true
	logger.Info("tool executed", "tool", name, "action", action.Type, "description", action.Description)

	return outcome.Payload, action
}

// dropUnsetEnums removes empty strings given for optional enum properties.
// Models send "" for an enum they have no value for; the typed inputs treat
// it as unset.
func dropUnsetEnums(args map[string]any, schema *jsonschema.Schema) {
	for name, prop := range schema.Properties {
		if len(prop.Enum) == 0 || slices.Contains(schema.Required, name) {
			continue
		}
		if v, ok := args[name].(string); ok && v == "" {
			delete(args, name)
		}
	}
}

// dropNulls removes explicit nulls that models emit for omitted optional arguments
func dropNulls(args map[string]any) map[string]any {
	cleaned := make(map[string]any, len(args))
	for k, v := range args {
		if v != nil {
			cleaned[k] = v
		}
	}
	return cleaned
}
