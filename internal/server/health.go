package server

import (
	"encoding/json"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/teemow/focusmate/internal/config"
)

// Health status constants for health check responses.
const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"

	credentialConfigured = "configured"
	credentialMissing    = "missing"
)

// HealthChecker provides liveness and readiness endpoints.
type HealthChecker struct {
	ready         atomic.Bool
	serverContext *ServerContext
	startTime     time.Time
}

// NewHealthChecker creates a new HealthChecker. It starts out ready.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{
		serverContext: sc,
		startTime:     time.Now(),
	}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// isServerShuttingDown returns false if serverContext is nil.
func (h *HealthChecker) isServerShuttingDown() bool {
	return h.serverContext != nil && h.serverContext.IsShutdown()
}

// HealthResponse represents the JSON response for health endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse adds uptime and credential presence. Credential
// values are never included.
type DetailedHealthResponse struct {
	Status      string            `json:"status"`
	Uptime      string            `json:"uptime"`
	Credentials map[string]string `json:"credentials,omitempty"`
}

// LivenessHandler returns the /healthz handler. It only reports that the
// process is serving.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealthJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler returns the /readyz handler.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks := make(map[string]string)
		allOk := true

		if !h.ready.Load() {
			checks["ready"] = healthStatusNotReady
			allOk = false
		} else {
			checks["ready"] = healthStatusOK
		}

		if h.isServerShuttingDown() {
			checks["shutdown"] = healthStatusShuttingDown
			allOk = false
		} else {
			checks["shutdown"] = healthStatusOK
		}

		response := HealthResponse{Checks: checks}
		status := http.StatusOK
		if allOk {
			response.Status = healthStatusOK
		} else {
			response.Status = healthStatusNotReady
			status = http.StatusServiceUnavailable
		}
		writeHealthJSON(w, status, response)
	})
}

// DetailedHealthHandler returns the /healthz/detailed handler.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response := DetailedHealthResponse{
			Status: healthStatusOK,
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
		}
		if h.serverContext != nil {
			response.Credentials = credentialChecks(h.serverContext.Config())
		}

		status := http.StatusOK
		if !h.ready.Load() {
			response.Status = healthStatusNotReady
			status = http.StatusServiceUnavailable
		} else if h.isServerShuttingDown() {
			response.Status = healthStatusShuttingDown
			status = http.StatusServiceUnavailable
		}
		writeHealthJSON(w, status, response)
	})
}

// RegisterHealthEndpoints registers the health endpoints on r.
func (h *HealthChecker) RegisterHealthEndpoints(r chi.Router) {
	r.Method(http.MethodGet, "/healthz", h.LivenessHandler())
	r.Method(http.MethodGet, "/readyz", h.ReadinessHandler())
	r.Method(http.MethodGet, "/healthz/detailed", h.DetailedHealthHandler())
}

// credentialChecks reports which Kakao credentials are present. Missing
// credentials never change the health status.
func credentialChecks(cfg config.Config) map[string]string {
	checks := map[string]string{
		config.EnvRESTAPIKey:  credentialMissing,
		config.EnvAccessToken: credentialMissing,
	}
	if cfg.RESTAPIKey != "" {
		checks[config.EnvRESTAPIKey] = credentialConfigured
	}
	if cfg.AccessToken != "" || os.Getenv(config.EnvAccessToken) != "" {
		checks[config.EnvAccessToken] = credentialConfigured
	}
	return checks
}

func writeHealthJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
