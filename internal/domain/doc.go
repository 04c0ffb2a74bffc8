// Package domain holds the request scoped value types shared by the schema
// validator, the Kakao adapters, the formatter and the tool dispatcher.
//
// Nothing here outlives a single tool call. Errors are reported through
// *Error, whose Kind tells the dispatcher how a failure is rendered and
// whether the caller may retry.
package domain
