package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/focusmate/internal/instrumentation"
	"github.com/teemow/focusmate/internal/server"
)

// Outcome is what an instrumented tool handler reports back: the result sent
// to the client plus the failure classification, which stays server side.
type Outcome struct {
	Result *mcp.CallToolResult

	// ErrorKind is empty on success
	ErrorKind string
	Err       error
}

// Failed reports whether the call ended in a failure result.
func (o Outcome) Failed() bool {
	return o.ErrorKind != "" || (o.Result != nil && o.Result.IsError)
}

// InstrumentedToolHandler wraps a tool handler with a span, metrics and audit
// logging. The Kakao service and operation are recorded alongside the tool
// name. The returned handler never returns a Go error.
//
// Usage:
//
//	s.AddTool(tool, common.InstrumentedToolHandler("search_places", "local", "search", sc, handler))
func InstrumentedToolHandler(
	toolName string,
	serviceName string,
	operation string,
	sc *server.ServerContext,
	handler func(ctx context.Context, request mcp.CallToolRequest) Outcome,
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		invocation := instrumentation.NewToolInvocation(toolName).
			WithService(serviceName, operation)

		ctx, span := instrumentation.StartToolSpan(ctx, toolName,
			instrumentation.NewSpanAttributeBuilder().
				WithInvocationID(invocation.ID).
				WithService(serviceName).
				WithOperation(operation).
				Build()...)
		defer span.End()
		invocation.WithSpanContext(ctx)

		start := time.Now()
		out := handler(ctx, request)
		duration := time.Since(start)

		if out.Failed() {
			kind := out.ErrorKind
			if kind == "" {
				kind = "unknown"
			}
			invocation.Complete(false, kind, out.Err)
			span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithErrorKind(kind).Build()...)
			instrumentation.SetSpanError(span, out.Err)
			if metrics != nil {
				metrics.RecordToolFailure(ctx, toolName, kind)
			}
		} else {
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		if metrics != nil {
			metrics.RecordToolInvocation(ctx, toolName, invocation.Status(), duration)
		}
		if auditLogger != nil {
			auditLogger.LogToolInvocation(invocation)
		}

		return out.Result, nil
	}
}
