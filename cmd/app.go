package cmd

import (
	"context"
	"fmt"
	"log/slog"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/focusmate/internal/config"
	"github.com/teemow/focusmate/internal/server"
	"github.com/teemow/focusmate/internal/tools"
)

// serverName is the MCP implementation name reported to clients.
const serverName = "focusmate"

// app is the wired set of components every entry point needs.
type app struct {
	serverContext *server.ServerContext
	dispatcher    *tools.Dispatcher
	mcpServer     *mcpserver.MCPServer
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	sc, err := server.NewServerContext(ctx, cfg, server.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}

	d := tools.NewDispatcher(sc, tools.WithLogger(logger))
	return &app{
		serverContext: sc,
		dispatcher:    d,
		mcpServer:     tools.NewMCPServer(serverName, version, d, sc),
	}, nil
}

func (a *app) shutdown() error {
	return a.serverContext.Shutdown()
}
