package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Common log attribute keys.
const (
	KeyOperation    = "operation"
	KeyService      = "service"
	KeyTool         = "tool"
	KeyInvocationID = "invocation_id"
	KeyDuration     = "duration"
	KeyStatus       = "status"
	KeyError        = "error"
	KeyErrorKind    = "error_kind"
	KeyTransport    = "transport"
)

// Output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New builds the process logger. Output goes to w, which must not be stdout
// when the stdio transport is in use. debug lowers the level to Debug.
func New(w io.Writer, format string, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(format, FormatJSON) {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ValidateFormat reports whether format is accepted by New.
func ValidateFormat(format string) error {
	switch strings.ToLower(format) {
	case "", FormatText, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid log format %q, must be one of: text, json", format)
	}
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithTransport returns a logger with the transport attribute set.
func WithTransport(logger *slog.Logger, transport string) *slog.Logger {
	return logger.With(slog.String(KeyTransport, transport))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error.
// A nil error yields an empty group, which slog omits.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// SanitizeToken returns a length indicator for a credential without exposing
// any of its content.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
