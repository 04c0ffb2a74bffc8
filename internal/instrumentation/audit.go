package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ToolInvocation is the audit record of one tool call.
//
// Arguments are never recorded: goals and locations are free text typed by
// the user.
type ToolInvocation struct {
	// ID is a random identifier shared by the audit line and the tool span
	ID string

	// Tool name
	Tool string

	// Kakao API the tool calls
	ServiceName string
	Operation   string

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	ErrorKind string
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// NewToolInvocation creates a new ToolInvocation with timing started.
// Call Complete when the tool finishes.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		ID:        uuid.NewString(),
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithService sets the Kakao service and operation.
func (ti *ToolInvocation) WithService(serviceName, operation string) *ToolInvocation {
	ti.ServiceName = serviceName
	ti.Operation = operation
	return ti
}

// WithSpanContext copies the trace and span IDs from ctx.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID = GetTraceID(ctx)
	ti.SpanID = GetSpanID(ctx)
	return ti
}

// Complete marks the invocation as finished. errorKind is the domain error
// kind of a failure and is ignored on success.
func (ti *ToolInvocation) Complete(success bool, errorKind string, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if !success {
		ti.ErrorKind = errorKind
	}
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteSuccess marks the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, "", nil)
}

// Status returns StatusSuccess or StatusError.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns the slog attributes of the record. The raw error text is
// only included when includeError is set.
func (ti *ToolInvocation) LogAttrs(includeError bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("invocation_id", ti.ID),
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}

	if ti.ServiceName != "" {
		attrs = append(attrs, slog.String("service", ti.ServiceName))
	}
	if ti.Operation != "" {
		attrs = append(attrs, slog.String("operation", ti.Operation))
	}
	if ti.ErrorKind != "" {
		attrs = append(attrs, slog.String("error_kind", ti.ErrorKind))
	}
	if includeError && ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}

	return attrs
}

// AuditLogger writes one structured line per tool invocation.
type AuditLogger struct {
	logger       *slog.Logger
	includeError bool
	enabled      bool
}

// NewAuditLogger creates an enabled AuditLogger that omits raw error text.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates an AuditLogger from config.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:       logger,
		includeError: config.IncludeErrorDetail,
		enabled:      config.Enabled,
	}
}

// SetEnabled sets whether audit logging is enabled.
func (al *AuditLogger) SetEnabled(enabled bool) {
	al.enabled = enabled
}

// LogToolInvocation logs ti at info level on success and warn level on failure.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if !al.enabled {
		return
	}

	attrs := ti.LogAttrs(al.includeError)
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ti.Success {
		al.logger.Info("tool_executed", args...)
	} else {
		al.logger.Warn("tool_failed", args...)
	}
}
