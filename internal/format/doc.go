// Package format renders tool results as markdown or JSON text.
//
// Markdown is the default and is meant for people reading the reply in an
// MCP client. JSON output is the result record itself and is never cut;
// markdown place lists are capped at MaxMarkdownLength characters.
package format
