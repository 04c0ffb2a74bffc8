package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrTool      = "tool"
	attrKind      = "kind"
)

// Metrics records the server's OpenTelemetry metrics. A zero Metrics is a
// valid no-op recorder.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Kakao API metrics
	kakaoAPIOperationsTotal   metric.Int64Counter
	kakaoAPIOperationDuration metric.Float64Histogram

	// MCP tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram
	toolFailuresTotal    metric.Int64Counter

	// detailedLabels keeps raw request paths instead of route templates
	detailedLabels bool
}

// NewMetrics creates all instruments on the given meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.kakaoAPIOperationsTotal, err = meter.Int64Counter(
		"kakao_api_operations_total",
		metric.WithDescription("Total number of Kakao API calls"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kakao_api_operations_total counter: %w", err)
	}

	// Upper bucket sits at the 10s outbound timeout.
	m.kakaoAPIOperationDuration, err = meter.Float64Histogram(
		"kakao_api_operation_duration_seconds",
		metric.WithDescription("Kakao API call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kakao_api_operation_duration_seconds histogram: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	m.toolFailuresTotal, err = meter.Int64Counter(
		"mcp_tool_failures_total",
		metric.WithDescription("Total number of failed MCP tool invocations by error kind"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_failures_total counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request. Unless detailed labels are
// enabled the path is reduced with NormalizePath.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	if !m.detailedLabels {
		path = NormalizePath(path)
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordKakaoAPIOperation records one outbound Kakao API call.
//
// Parameters:
//   - service: ServiceLocal, ServiceCalendar or ServiceTalk
//   - operation: OperationSearch, OperationGeocode, OperationCreate or OperationSend
//   - status: StatusSuccess or StatusError
//   - duration: time until the response (or failure)
func (m *Metrics) RecordKakaoAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m.kakaoAPIOperationsTotal == nil || m.kakaoAPIOperationDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.kakaoAPIOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.kakaoAPIOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordToolFailure counts a failed invocation by error kind, e.g.
// "validation_failed" or "rate_limited".
func (m *Metrics) RecordToolFailure(ctx context.Context, toolName, kind string) {
	if m.toolFailuresTotal == nil {
		return
	}

	m.toolFailuresTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrKind, kind),
	))
}
