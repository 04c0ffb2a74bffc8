// Package logging provides structured logging helpers built on log/slog.
//
// All logs go to stderr: with the stdio transport, stdout carries JSON-RPC
// frames and must stay clean.
//
// # Usage Patterns
//
//	logger := logging.New(os.Stderr, logging.FormatText, debug)
//	logger.Info("tool call finished",
//	    logging.Tool("search_places"),
//	    logging.Status("success"))
//
// Credentials are never logged directly; use SanitizeToken.
package logging
