package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/teemow/focusmate/internal/config"
	"github.com/teemow/focusmate/internal/logging"
)

// errToolFailed is returned after a failed tool call has been printed.
var errToolFailed = errors.New("tool call failed")

type callOptions struct {
	args  string
	plain bool
	debug bool
}

func newCallCmd() *cobra.Command {
	var opts callOptions

	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Call a single tool and print its result",
		Long: `Call one focusmate tool directly, without an MCP client, and print the
rendered result. Arguments are given as a JSON object and go through the same
validation as an MCP tools/call request.

Examples:
  focusmate call search_places --args '{"purpose":"study","location":"Hongdae Station"}'
  focusmate call send_commitment_message --args '{"goal":"Finish chapter 3"}'

Markdown output is styled when stdout is a terminal. The command exits with
a non-zero status when the tool reports a failure.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			render := !opts.plain && term.IsTerminal(int(os.Stdout.Fd()))
			return runCall(ctx, cmd.OutOrStdout(), args[0], opts, render)
		},
	}

	cmd.Flags().StringVar(&opts.args, "args", "{}", "Tool arguments as a JSON object")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Print the raw result even on a terminal")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	return cmd
}

func runCall(ctx context.Context, out io.Writer, toolName string, opts callOptions, render bool) error {
	var raw map[string]any
	if err := json.Unmarshal([]byte(opts.args), &raw); err != nil {
		return fmt.Errorf("--args must be a JSON object: %w", err)
	}

	cfg := config.Load()
	logger := logging.New(os.Stderr, cfg.LogFormat, opts.debug)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.shutdown() }()

	env := a.dispatcher.Dispatch(ctx, toolName, raw)

	content := env.Content
	if render && !json.Valid([]byte(content)) {
		content = renderMarkdown(content)
	}
	if _, err := fmt.Fprintln(out, content); err != nil {
		return err
	}

	if env.IsError {
		return errToolFailed
	}
	return nil
}

// renderMarkdown styles markdown for the terminal, falling back to the
// input when rendering fails.
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return md
	}
	styled, err := r.Render(md)
	if err != nil {
		return md
	}
	return styled
}
