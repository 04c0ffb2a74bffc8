package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/focusmate/internal/server"
	"github.com/teemow/focusmate/internal/tools/common"
)

// Register adds every dispatcher tool to s. Results are relayed verbatim:
// the text content and the error flag of the envelope.
func Register(s *mcpserver.MCPServer, d *Dispatcher, sc *server.ServerContext) {
	for _, t := range d.Tools() {
		tool := mcp.NewToolWithRawSchema(t.Name, t.Description, t.InputSchema())
		tool.Annotations.Title = t.Label
		tool.Annotations.ReadOnlyHint = mcp.ToBoolPtr(t.Name == SearchPlacesTool)
		tool.Annotations.OpenWorldHint = mcp.ToBoolPtr(true)

		s.AddTool(tool, common.InstrumentedToolHandler(t.Name, t.Service, t.Operation, sc, d.handler(t.Name)))
	}
}

func (d *Dispatcher) handler(name string) func(ctx context.Context, request mcp.CallToolRequest) common.Outcome {
	return func(ctx context.Context, request mcp.CallToolRequest) common.Outcome {
		env := d.Dispatch(ctx, name, request.GetArguments())
		out := common.Outcome{Result: env.CallToolResult(), Err: env.Err}
		if env.IsError {
			out.ErrorKind = env.Kind.String()
		}
		return out
	}
}

// NewMCPServer builds an MCP server exposing the dispatcher's tools.
func NewMCPServer(name, version string, d *Dispatcher, sc *server.ServerContext) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer(name, version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	Register(s, d, sc)
	return s
}

// Names returns the registered tool names sorted.
func (d *Dispatcher) Names() []string {
	tools := d.Tools()
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return names
}
