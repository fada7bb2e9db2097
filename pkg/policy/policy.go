package policy

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sidekick/pkg/model"
	"github.com/m-mizutani/sidekick/pkg/tool"
	"github.com/m-mizutani/sidekick/pkg/utils/logging"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/topdown/print"
)

// Query is the rule evaluated for every tool call. Each element of the set
// is a reason to reject the call.
const Query = "data.dispatch.deny"

var ErrDenied = goerr.New("denied by policy")

// Policy rejects tool calls with Rego rules before they reach the datastore
type Policy struct {
	query *rego.PreparedEvalQuery
}

var _ tool.Guard = (*Policy)(nil)

// input is the document exposed to Rego as `input`
type input struct {
	Tool       string         `json:"tool"`
	Args       map[string]any `json:"args"`
	SalesID    int64          `json:"sales_id"`
	PipelineID int64          `json:"pipeline_id"`
}

// printHook forwards Rego print() output to the logger
type printHook struct {
	ctx context.Context
}

func (h *printHook) Print(_ print.Context, message string) error {
	logging.From(h.ctx).Info("rego print", "message", message)
	return nil
}

// Load reads all .rego files in dir. It returns nil when dir has none.
func Load(ctx context.Context, dir string) (*Policy, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.rego"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to glob policy files", goerr.V("dir", dir))
	}
	if len(files) == 0 {
		return nil, nil
	}

	modules := make(map[string]string, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read policy file", goerr.V("path", file))
		}
		modules[file] = string(data)
	}

	return New(ctx, modules)
}

// New compiles modules keyed by file name
func New(ctx context.Context, modules map[string]string) (*Policy, error) {
	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)

	options := make([]func(*rego.Rego), 0, len(modules)+2)
	options = append(options, rego.Query(Query), rego.EnablePrintStatements(true))
	for _, name := range names {
		options = append(options, rego.Module(name, modules[name]))
	}

	prepared, err := rego.New(options...).PrepareForEval(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare policy query", goerr.V("query", Query))
	}

	return &Policy{query: &prepared}, nil
}

// Check returns ErrDenied with the reasons joined when any deny rule matches
func (x *Policy) Check(ctx context.Context, actx *model.AgentContext, name string, args map[string]any) error {
	in := input{
		Tool:       name,
		Args:       args,
		SalesID:    int64(actx.SalesID),
		PipelineID: int64(actx.PipelineID),
	}
	if in.Args == nil {
		in.Args = map[string]any{}
	}

	rs, err := x.query.Eval(ctx, rego.EvalInput(in), rego.EvalPrintHook(&printHook{ctx: ctx}))
	if err != nil {
		return goerr.Wrap(err, "failed to evaluate policy", goerr.V("tool", name))
	}

	var reasons []string
	for _, result := range rs {
		for _, expr := range result.Expressions {
			values, ok := expr.Value.([]any)
			if !ok {
				continue
			}
			for _, v := range values {
				if s, ok := v.(string); ok {
					reasons = append(reasons, s)
				}
			}
		}
	}

	if len(reasons) == 0 {
		return nil
	}
	sort.Strings(reasons)
	return goerr.Wrap(ErrDenied, strings.Join(reasons, "; "), goerr.V("tool", name))
}
