// Package cmd implements the command-line interface for focusmate.
//
// This package provides the following commands:
//   - serve: Start the MCP server (stdio or streamable HTTP)
//   - call: Run a single tool and print its result
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
