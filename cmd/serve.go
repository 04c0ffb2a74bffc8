package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/focusmate/internal/config"
	"github.com/teemow/focusmate/internal/instrumentation"
	"github.com/teemow/focusmate/internal/logging"
	"github.com/teemow/focusmate/internal/server"
)

// Transport names accepted by --transport.
const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

// serveOptions collects the serve flags.
type serveOptions struct {
	transport   string
	httpAddr    string
	debug       bool
	logFormat   string
	restAPIKey  string
	accessToken string
	metrics     MetricsConfig
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server with the focusmate tools:
search_places, create_calendar_event and send_commitment_message.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport at /mcp

Credentials:
  KAKAO_REST_API_KEY  REST API key for place search
  KAKAO_ACCESS_TOKEN  User access token for the calendar and message tools.
                      Needs the talk_calendar and talk_message consents.

Missing credentials do not stop the server; the affected tools report them
when called.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadServeEnvVars(cmd, &opts)
			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", "", "HTTP server address (for streamable-http transport). Defaults to :$PORT or :8080.")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "", "Log format: text or json. Can also use LOG_FORMAT env var.")
	cmd.Flags().StringVar(&opts.restAPIKey, "rest-api-key", "", "Kakao REST API key. Can also use KAKAO_REST_API_KEY env var.")
	cmd.Flags().StringVar(&opts.accessToken, "access-token", "", "Kakao user access token. Can also use KAKAO_ACCESS_TOKEN env var, which is re-read on every call.")

	// Metrics server flags
	cmd.Flags().BoolVar(&opts.metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// loadServeEnvVars applies environment variables for flags the user did not
// set explicitly.
func loadServeEnvVars(cmd *cobra.Command, opts *serveOptions) {
	if !cmd.Flags().Changed("metrics-enabled") {
		if v := os.Getenv("METRICS_ENABLED"); v != "" {
			opts.metrics.Enabled = strings.EqualFold(v, "true")
		}
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			opts.metrics.Addr = addr
		}
	}
}

// config merges flag values over the environment configuration.
func (o serveOptions) config() config.Config {
	cfg := config.Load()
	if o.httpAddr != "" {
		cfg.HTTPAddr = o.httpAddr
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	if o.restAPIKey != "" {
		cfg.RESTAPIKey = strings.TrimSpace(o.restAPIKey)
	}
	if o.accessToken != "" {
		cfg.AccessToken = strings.TrimSpace(o.accessToken)
	}
	return cfg
}

func runServe(opts serveOptions) error {
	if opts.transport != transportStdio && opts.transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := opts.config()
	if err := logging.ValidateFormat(cfg.LogFormat); err != nil {
		return err
	}

	// stdout carries JSON-RPC on stdio, so logs always go to stderr
	logger := logging.WithTransport(logging.New(os.Stderr, cfg.LogFormat, opts.debug), opts.transport)
	slog.SetDefault(logger)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if err := checkInstrumentationConfig(instrConfig, opts.transport); err != nil {
		return err
	}

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	a, err := newApp(shutdownCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	// Set metrics and audit logger on server context for tool instrumentation
	if provider.Enabled() {
		a.serverContext.SetMetrics(provider.Metrics())
		a.serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging))
	}

	if cfg.RESTAPIKey == "" {
		logger.Warn("KAKAO_REST_API_KEY is not set; search_places will fail until it is configured")
	}

	switch opts.transport {
	case transportStdio:
		return runStdioServer(a.mcpServer)
	default:
		metricsServer, err := startMetricsServer(opts.metrics, provider, logger)
		if err != nil {
			return err
		}
		if metricsServer != nil {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := metricsServer.Shutdown(ctx); err != nil {
					logger.Warn("error during metrics server shutdown", logging.Err(err))
				}
			}()
		}
		return runStreamableHTTPServer(shutdownCtx, a, cfg.HTTPAddr, logger)
	}
}

// checkInstrumentationConfig rejects exporters that would write to stdout
// while stdout carries the stdio transport.
func checkInstrumentationConfig(c instrumentation.Config, transport string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid instrumentation configuration: %w", err)
	}
	if transport == transportStdio && c.Enabled &&
		(c.MetricsExporter == instrumentation.ExporterStdout || c.TracingExporter == instrumentation.ExporterStdout) {
		return errors.New("stdout exporters cannot be used with the stdio transport")
	}
	return nil
}

func startMetricsServer(mc MetricsConfig, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	if !mc.Enabled || !provider.Enabled() || provider.PrometheusHandler() == nil {
		return nil, nil
	}

	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    mc.Addr,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		logger.Info("metrics server started", "addr", metricsServer.Addr())
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, errors.New("metrics server startup timed out")
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, a *app, addr string, logger *slog.Logger) error {
	httpServer := server.NewHTTPServer(a.mcpServer, a.serverContext)

	ready := make(chan struct{})
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(addr, ready); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ready:
		logger.Info("streamable HTTP server started",
			"addr", httpServer.ListenAddr(),
			"endpoint", server.MCPEndpoint,
			"health", "/healthz, /readyz")
	case err := <-serverDone:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
