// Package common provides the instrumentation wrapper shared by every MCP
// tool handler: a tracing span, invocation metrics and an audit log entry per
// call.
package common
