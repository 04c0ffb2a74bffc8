package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// MCPEndpoint is the path of the streamable HTTP transport.
const MCPEndpoint = "/mcp"

const (
	defaultReadHeaderTimeout = 10 * time.Second
	defaultIdleTimeout       = 120 * time.Second
)

// HTTPServer serves the MCP streamable HTTP transport together with the
// health endpoints.
type HTTPServer struct {
	mcpServer  *mcpserver.MCPServer
	sc         *ServerContext
	health     *HealthChecker
	httpServer *http.Server
	handler    http.Handler
	listener   net.Listener
}

// NewHTTPServer creates the HTTP transport for mcpSrv. Each POST to /mcp is
// handled statelessly; no session state survives a request.
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, sc *ServerContext) *HTTPServer {
	s := &HTTPServer{
		mcpServer: mcpSrv,
		sc:        sc,
		health:    NewHealthChecker(sc),
	}
	s.handler = s.routes()
	return s
}

func (s *HTTPServer) routes() http.Handler {
	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(MCPEndpoint),
		mcpserver.WithStateLess(true),
	)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.metricsMiddleware)
	r.Use(corsMiddleware)

	s.health.RegisterHealthEndpoints(r)
	r.Handle(MCPEndpoint, streamable)
	return r
}

// Handler returns the routed handler, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

// Health returns the health checker backing /readyz.
func (s *HTTPServer) Health() *HealthChecker {
	return s.health
}

// Start listens on addr and blocks until the server stops. ready, if not
// nil, is closed once the listener is bound.
func (s *HTTPServer) Start(addr string, ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln

	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}

	slog.Info("starting MCP HTTP server", "addr", ln.Addr().String(), "endpoint", MCPEndpoint)
	if ready != nil {
		close(ready)
	}
	err = s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ListenAddr returns the bound address once Start has bound the listener.
func (s *HTTPServer) ListenAddr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown marks the server not ready and drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	if s.httpServer == nil {
		return nil
	}
	slog.Info("shutting down MCP HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// metricsMiddleware records http_requests_total and the request duration.
func (s *HTTPServer) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics := s.sc.Metrics()
		if metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, status, time.Since(start))
	})
}

// corsMiddleware allows browser based MCP clients from any origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func setCORSHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Mcp-Session-Id, Mcp-Protocol-Version")
	h.Set("Access-Control-Expose-Headers", "Mcp-Session-Id")
}
