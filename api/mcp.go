// Package api exposes focusmate as a single serverless function. Each POST
// carries one JSON-RPC request and gets one JSON-RPC response.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/focusmate/internal/config"
	"github.com/teemow/focusmate/internal/instrumentation"
	"github.com/teemow/focusmate/internal/logging"
	"github.com/teemow/focusmate/internal/server"
	"github.com/teemow/focusmate/internal/tools"
)

// Version is reported by GET and in the initialize response.
var Version = "dev"

const serverName = "focusmate"

var (
	initOnce sync.Once
	handler  http.Handler
	initErr  error
)

// Handler is the function entry point. The tool set is built on the first
// request and reused while the instance stays warm.
func Handler(w http.ResponseWriter, r *http.Request) {
	initOnce.Do(func() {
		cfg := config.Load()
		logger := logging.New(os.Stderr, cfg.LogFormat, false)
		instrConfig := instrumentation.FunctionConfig()
		instrConfig.ServiceVersion = Version
		handler, initErr = newHandler(context.Background(), cfg, instrConfig, logger)
		if initErr != nil {
			logger.Error("failed to initialize function handler", logging.Err(initErr))
		}
	})

	if initErr != nil {
		http.Error(w, "server misconfigured", http.StatusInternalServerError)
		return
	}
	handler.ServeHTTP(w, r)
}

// newHandler wires the tools for one function instance. Telemetry is pushed
// after every request since the instance may be frozen once it responds.
func newHandler(ctx context.Context, cfg config.Config, instrConfig instrumentation.Config, logger *slog.Logger, opts ...instrumentation.ProviderOption) (http.Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	provider, err := instrumentation.NewProvider(ctx, instrConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	sc, err := server.NewServerContext(ctx, cfg, server.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if provider.Enabled() {
		sc.SetMetrics(provider.Metrics())
	}
	if instrConfig.AuditLogging.Enabled {
		sc.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging))
	}

	d := tools.NewDispatcher(sc, tools.WithLogger(logger))
	mcpSrv := tools.NewMCPServer(serverName, Version, d, sc)

	return provider.FlushAfter(newFunctionHandler(mcpSrv, d, logger), logger), nil
}

func newFunctionHandler(mcpSrv *mcpserver.MCPServer, d *tools.Dispatcher, logger *slog.Logger) http.Handler {
	return server.NewFunctionHandler(mcpSrv, server.Descriptor{
		Name:    serverName,
		Version: Version,
		Tools:   d.Names(),
	}, logger)
}
