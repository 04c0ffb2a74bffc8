package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// maxRequestBytes caps a single JSON-RPC request body.
const maxRequestBytes = 1 << 20

// Descriptor is the body of a GET on the function endpoint.
type Descriptor struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Transport string   `json:"transport"`
	Tools     []string `json:"tools"`
}

// FunctionHandler answers exactly one JSON-RPC request per HTTP POST, for
// serverless platforms where no process outlives a request.
type FunctionHandler struct {
	mcpServer  *mcpserver.MCPServer
	descriptor Descriptor
	logger     *slog.Logger
}

// NewFunctionHandler wraps mcpSrv. descriptor is returned as is on GET.
func NewFunctionHandler(mcpSrv *mcpserver.MCPServer, descriptor Descriptor, logger *slog.Logger) *FunctionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if descriptor.Transport == "" {
		descriptor.Transport = "json-rpc over http post"
	}
	return &FunctionHandler{
		mcpServer:  mcpSrv,
		descriptor: descriptor,
		logger:     logger,
	}
}

// checkEnvelope returns the method of a well formed JSON-RPC 2.0 request.
// Fields of the wrong type make the request invalid, not unparsable.
func checkEnvelope(raw map[string]json.RawMessage) (string, bool) {
	var version, method string
	if err := json.Unmarshal(raw["jsonrpc"], &version); err != nil || version != mcp.JSONRPC_VERSION {
		return "", false
	}
	if err := json.Unmarshal(raw["method"], &method); err != nil || method == "" {
		return "", false
	}
	return method, true
}

func (h *FunctionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.descriptor)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "GET, POST, OPTIONS")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		writeJSON(w, http.StatusOK, rpcError(nil, mcp.INVALID_REQUEST, "request body too large or unreadable"))
		return
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if json.Valid(trimmed) && len(trimmed) > 0 {
			writeJSON(w, http.StatusOK, rpcError(nil, mcp.INVALID_REQUEST, "request must be a single JSON-RPC object"))
		} else {
			writeJSON(w, http.StatusOK, rpcError(nil, mcp.PARSE_ERROR, "parse error"))
		}
		return
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		writeJSON(w, http.StatusOK, rpcError(nil, mcp.PARSE_ERROR, "parse error"))
		return
	}
	method, ok := checkEnvelope(raw)
	if !ok {
		writeJSON(w, http.StatusOK, rpcError(requestID(raw["id"]), mcp.INVALID_REQUEST, "invalid request"))
		return
	}

	h.logger.Debug("function request", "method", method)

	resp := h.mcpServer.HandleMessage(r.Context(), json.RawMessage(trimmed))
	if resp == nil {
		// notification
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// requestID recovers the caller's id for an error response, or null.
func requestID(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var id any
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil
	}
	switch id.(type) {
	case string, float64:
		return id
	default:
		return nil
	}
}

func rpcError(id any, code int, message string) mcp.JSONRPCError {
	return mcp.NewJSONRPCError(mcp.NewRequestId(id), code, message, nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
