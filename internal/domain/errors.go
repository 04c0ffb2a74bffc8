package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a tool failure. The dispatcher switches on it instead of
// inspecting error strings.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindRateLimited
	KindProvider
	KindConfigMissing
	KindUnknownTool
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_failed"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindRateLimited:
		return "rate_limited"
	case KindProvider:
		return "provider_error"
	case KindConfigMissing:
		return "config_missing"
	case KindUnknownTool:
		return "unknown_tool"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by validators and Kakao adapters.
// Only UserMessage is ever shown to the caller; Err is kept for logs.
type Error struct {
	// Kind is the failure class
	Kind Kind

	// Op is the operation that failed (e.g. "local.search", "calendar.create")
	Op string

	// Status is the provider HTTP status, when one was received
	Status int

	// Detail is a short human readable message (validation summary or the
	// provider supplied "msg")
	Detail string

	// Scope is the missing consent scope for KindForbidden
	Scope string

	// Location is the unresolved location for KindNotFound
	Location string

	// Setting names the missing configuration value for KindConfigMissing
	Setting string

	// Tool is the unrecognized tool name for KindUnknownTool
	Tool string

	// Err is the underlying error
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Op != "" {
		msg = "kakao " + e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements the errors.Unwrap interface
func (e *Error) Unwrap() error {
	return e.Err
}

// Transient reports whether the caller may retry the same request later.
func (e *Error) Transient() bool {
	return e.Kind == KindRateLimited || e.Kind == KindTimeout
}

// UserMessage returns the text shown to the caller. It never includes the
// wrapped error chain.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindValidation:
		return "Invalid arguments: " + e.Detail
	case KindNotFound:
		return fmt.Sprintf("Could not find a location matching %q. Try a more specific address, station or landmark name.", e.Location)
	case KindUnauthorized:
		return "Authentication failed: Kakao rejected the configured credentials. Check the REST API key or issue a new access token, then try again."
	case KindForbidden:
		return fmt.Sprintf("Permission denied: the access token was not granted the %q consent scope. Re-authorize the app with that scope and try again.", e.Scope)
	case KindRateLimited:
		return "The Kakao API rate limit was exceeded. Wait a moment and try again."
	case KindProvider:
		if e.Status == 0 {
			return "The Kakao API could not be reached. Try again later."
		}
		if e.Detail != "" {
			return fmt.Sprintf("The Kakao API returned an error (status %d): %s", e.Status, e.Detail)
		}
		return fmt.Sprintf("The Kakao API returned an error (status %d).", e.Status)
	case KindConfigMissing:
		return fmt.Sprintf("Authentication required: %s is not configured. Issue a Kakao access token with the required consent and set it in the server environment.", e.Setting)
	case KindUnknownTool:
		return fmt.Sprintf("Unknown tool %q.", e.Tool)
	case KindTimeout:
		return "The Kakao API did not respond in time. Try again."
	default:
		return "An unexpected error occurred."
	}
}

// NewValidationError reports arguments that do not satisfy a tool schema.
func NewValidationError(detail string) *Error {
	return &Error{Kind: KindValidation, Detail: detail}
}

// NewNotFoundError reports a location that resolved to no coordinates.
func NewNotFoundError(op, location string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Location: location}
}

// NewUnauthorizedError reports a 401 from the provider.
func NewUnauthorizedError(op string) *Error {
	return &Error{Kind: KindUnauthorized, Op: op, Status: 401}
}

// NewForbiddenError reports a token that lacks the given consent scope.
func NewForbiddenError(op string, status int, scope string) *Error {
	return &Error{Kind: KindForbidden, Op: op, Status: status, Scope: scope}
}

// NewRateLimitedError reports a 429 from the provider.
func NewRateLimitedError(op string) *Error {
	return &Error{Kind: KindRateLimited, Op: op, Status: 429}
}

// NewProviderError reports any other non-2xx response or a transport failure
// (status 0).
func NewProviderError(op string, status int, detail string, err error) *Error {
	return &Error{Kind: KindProvider, Op: op, Status: status, Detail: detail, Err: err}
}

// NewConfigMissingError reports a credential that is absent from the
// environment.
func NewConfigMissingError(op, setting string) *Error {
	return &Error{Kind: KindConfigMissing, Op: op, Setting: setting}
}

// NewUnknownToolError reports a tool name with no registration.
func NewUnknownToolError(name string) *Error {
	return &Error{Kind: KindUnknownTool, Tool: name}
}

// NewTimeoutError reports an outbound call that exceeded its deadline.
func NewTimeoutError(op string, err error) *Error {
	return &Error{Kind: KindTimeout, Op: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// UserMessage returns the caller-facing text for any error.
func UserMessage(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.UserMessage()
	}
	return (&Error{}).UserMessage()
}

// IsTransient reports whether err is a retryable domain error.
func IsTransient(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Transient()
}
