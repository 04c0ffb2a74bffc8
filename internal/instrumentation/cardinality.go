package instrumentation

import "strings"

// Operation label values for Kakao API metrics and spans.
// Status and service constants are defined in config.go.
const (
	OperationSearch  = "search"
	OperationGeocode = "geocode"
	OperationCreate  = "create"
	OperationSend    = "send"
)

// PathOther replaces any request path that is not a known route.
const PathOther = "other"

// knownPaths are the routes served by the HTTP transport and metrics server.
var knownPaths = map[string]bool{
	"/":                 true,
	"/mcp":              true,
	"/healthz":          true,
	"/readyz":           true,
	"/healthz/detailed": true,
	"/metrics":          true,
}

// NormalizePath maps a request path to a bounded label value. Scanners
// probing random URLs would otherwise create one time series per path.
//
// Example:
//
//	NormalizePath("/mcp")          // "/mcp"
//	NormalizePath("/mcp/")         // "/mcp"
//	NormalizePath("/wp-login.php") // "other"
func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if knownPaths[path] {
		return path
	}
	return PathOther
}
