// Package server provides the server context and the HTTP surfaces of
// focusmate.
//
// ServerContext owns the configuration, the lazily built Kakao client and
// the instrumentation hooks shared by every tool call. It implements the
// tool provider interface by delegating to the client.
//
// Three HTTP surfaces wrap an MCP server:
//   - HTTPServer: streamable HTTP at /mcp with health endpoints and CORS
//   - FunctionHandler: one JSON-RPC request per POST for serverless hosts
//   - MetricsServer: Prometheus metrics on a dedicated port
package server
