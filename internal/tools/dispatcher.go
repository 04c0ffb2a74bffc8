package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/focusmate/internal/domain"
	"github.com/teemow/focusmate/internal/format"
	"github.com/teemow/focusmate/internal/logging"
	"github.com/teemow/focusmate/internal/schema"
)

// Envelope is the only thing a tool call returns to the transport: the
// rendered text and whether it describes a failure.
type Envelope struct {
	Content string `json:"content"`
	IsError bool   `json:"isError"`

	// Kind classifies a failure for metrics and audit logs. It never
	// reaches the caller.
	Kind domain.Kind `json:"-"`
	// Err is the internal error behind a failure, for logs only.
	Err error `json:"-"`
}

// CallToolResult converts the envelope to an MCP tool result.
func (e Envelope) CallToolResult() *mcp.CallToolResult {
	if e.IsError {
		return mcp.NewToolResultError(e.Content)
	}
	return mcp.NewToolResultText(e.Content)
}

// Tool is one registered tool: its closed input schema and the adapter call
// it runs once the arguments are valid.
type Tool struct {
	Name        string
	Label       string
	Description string

	// Service and Operation name the Kakao API the tool calls
	Service   string
	Operation string

	schema *schema.Schema
	run    func(ctx context.Context, raw map[string]any) (any, format.Format, error)
}

// InputSchema returns the JSON Schema advertised in tools/list.
func (t *Tool) InputSchema() json.RawMessage {
	return t.schema.Raw()
}

// newTool builds a Tool whose arguments decode into A. check, when set, runs
// after decoding for rules the schema cannot express; its error is a
// validation failure and exec is not called.
func newTool[A any](name, label, description, service, operation string, check func(A) error, exec func(ctx context.Context, args A) (any, format.Format, error)) *Tool {
	var zero A
	sch := schema.MustReflect(name, &zero)
	return &Tool{
		Name:        name,
		Label:       label,
		Description: description,
		Service:     service,
		Operation:   operation,
		schema:      sch,
		run: func(ctx context.Context, raw map[string]any) (any, format.Format, error) {
			var args A
			if err := sch.Decode(raw, &args); err != nil {
				return nil, "", err
			}
			if check != nil {
				if err := check(args); err != nil {
					return nil, "", domain.NewValidationError(err.Error())
				}
			}
			return exec(ctx, args)
		},
	}
}

// Dispatcher routes a tool call through validation, the adapter and the
// formatter. It holds no per-call state and is safe for concurrent use.
type Dispatcher struct {
	tools  map[string]*Tool
	logger *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for failed calls.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher registers the three Kakao tools backed by p.
func NewDispatcher(p Provider, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		tools:  make(map[string]*Tool),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	for _, t := range []*Tool{searchTool(p), calendarTool(p), messageTool(p)} {
		d.tools[t.Name] = t
	}
	return d
}

// Tools returns the registered tools sorted by name.
func (d *Dispatcher) Tools() []*Tool {
	out := make([]*Tool, 0, len(d.tools))
	for _, t := range d.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the tool registered under name.
func (d *Dispatcher) Lookup(name string) (*Tool, bool) {
	t, ok := d.tools[name]
	return t, ok
}

// Dispatch runs the named tool. It never panics and never returns a Go
// error: every outcome, including an unknown name, is an Envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, raw map[string]any) (env Envelope) {
	t, ok := d.tools[name]
	if !ok {
		err := domain.NewUnknownToolError(name)
		return d.failure("Tool call", name, err)
	}

	defer func() {
		if r := recover(); r != nil {
			env = d.failure(t.Label, name, fmt.Errorf("panic in tool %s: %v", name, r))
		}
	}()

	result, f, err := t.run(ctx, raw)
	if err != nil {
		return d.failure(t.Label, name, err)
	}

	content, err := format.Render(result, f)
	if err != nil {
		return d.failure(t.Label, name, err)
	}
	return Envelope{Content: content}
}

func (d *Dispatcher) failure(label, name string, err error) Envelope {
	kind := domain.KindOf(err)
	d.logger.Debug("tool call failed",
		logging.Tool(name),
		slog.String(logging.KeyErrorKind, kind.String()),
		logging.Err(err),
	)
	return Envelope{
		Content: format.RenderFailure(label, err),
		IsError: true,
		Kind:    kind,
		Err:     err,
	}
}
