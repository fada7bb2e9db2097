package mcp

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sidekick/pkg/model"
	"github.com/m-mizutani/sidekick/pkg/tool"
	"github.com/m-mizutani/sidekick/pkg/utils/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server exposes the tool catalog to MCP clients. Each client session gets
// its own AgentContext so repeated lookups within a session hit session
// memory.
type Server struct {
	registry   *tool.Registry
	salesID    model.SalesID
	pipelineID model.PipelineID
	version    string

	mu       sync.Mutex
	sessions map[*mcp.ServerSession]*model.AgentContext

	// calls run one at a time since later calls use ids from earlier ones
	callMu sync.Mutex
}

// callResult is the structured content of a tool call result
type callResult struct {
	Action *model.ExecutedAction `json:"action"`
	Result any                   `json:"result,omitempty"`
}

func New(registry *tool.Registry, salesID model.SalesID, pipelineID model.PipelineID, version string) *Server {
	return &Server{
		registry:   registry,
		salesID:    salesID,
		pipelineID: pipelineID,
		version:    version,
		sessions:   make(map[*mcp.ServerSession]*model.AgentContext),
	}
}

// MCPServer builds the protocol server with one MCP tool per catalog entry
func (x *Server) MCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "sidekick",
		Version: x.version,
	}, nil)

	for _, t := range x.registry.Tools() {
		spec := t.Spec()
		server.AddTool(&mcp.Tool{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: spec.Schema,
		}, x.handler(spec.Name))
	}

	return server
}

// Run serves MCP over stdin/stdout until the client disconnects
func (x *Server) Run(ctx context.Context) error {
	if err := x.MCPServer().Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "failed to run MCP server")
	}
	return nil
}

func (x *Server) agentContext(session *mcp.ServerSession) *model.AgentContext {
	x.mu.Lock()
	defer x.mu.Unlock()

	actx, ok := x.sessions[session]
	if !ok {
		actx = model.NewAgentContext(x.salesID, x.pipelineID)
		x.sessions[session] = actx
		go x.release(session)
	}
	return actx
}

// release drops the session memory once the client disconnects
func (x *Server) release(session *mcp.ServerSession) {
	_ = session.Wait()

	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.sessions, session)
}

// sessionCount returns the number of sessions holding memory
func (x *Server) sessionCount() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.sessions)
}

func (x *Server) handler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args map[string]any
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return nil, goerr.Wrap(err, "failed to unmarshal arguments", goerr.V("tool", name))
			}
		}

		actx := x.agentContext(req.Session)

		x.callMu.Lock()
		defer x.callMu.Unlock()

		payload, action := x.registry.Dispatch(ctx, actx, name, args)
		out := &callResult{Action: action}
		if action.Success {
			out.Result = payload
		}

		text, err := json.Marshal(out)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal tool result", goerr.V("tool", name))
		}
		logging.From(ctx).Debug("MCP tool call", "tool", name, "success", action.Success)

		return &mcp.CallToolResult{
			Content:           []mcp.Content{&mcp.TextContent{Text: string(text)}},
			StructuredContent: out,
			IsError:           !action.Success,
		}, nil
	}
}
