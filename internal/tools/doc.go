// Package tools defines the focusmate MCP tools and the dispatcher that runs
// them.
//
// A call goes through three stages: the arguments are checked against the
// tool's closed input schema, the Kakao adapter performs the request, and the
// result is rendered by package format. Every outcome, including an unknown
// tool name, a validation failure or a provider error, becomes an Envelope;
// no error crosses the dispatcher as a Go error.
//
// Register exposes the tools on an mcp-go server with per-call tracing,
// metrics and audit logging.
package tools
