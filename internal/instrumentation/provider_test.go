package instrumentation

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func testConfig(runtime, metricsExporter string) Config {
	return Config{
		ServiceName:       "focusmate-test",
		ServiceVersion:    "1.0.0",
		ServiceInstanceID: "test-instance",
		Enabled:           true,
		Runtime:           runtime,
		MetricsExporter:   metricsExporter,
		TracingExporter:   ExporterNone,
		TraceSamplingRate: 1,
	}
}

func newTestProvider(t *testing.T, config Config, opts ...ProviderOption) *Provider {
	t.Helper()
	provider, err := NewProvider(context.Background(), config, opts...)
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{ServiceName: "focusmate-test"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if provider.Enabled() {
		t.Error("expected provider to be disabled")
	}
	if provider.Metrics() == nil {
		t.Error("expected metrics to be non-nil even when disabled")
	}
	if provider.PrometheusHandler() != nil {
		t.Error("expected no Prometheus handler when disabled")
	}
	if provider.Tracer("test") == nil {
		t.Error("expected a no-op tracer")
	}

	// recording through the zero Metrics must not panic
	provider.Metrics().RecordToolInvocation(context.Background(), "search_places", StatusSuccess, time.Millisecond)

	if err := provider.ForceFlush(context.Background()); err != nil {
		t.Errorf("expected no error on flush, got %v", err)
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("expected no error on shutdown, got %v", err)
	}

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	if got := provider.FlushAfter(next, nil); got == nil {
		t.Error("expected the handler to be returned unchanged")
	}
}

func TestNewProvider_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown metrics exporter", func(c *Config) { c.MetricsExporter = "statsd" }},
		{"unknown tracing exporter", func(c *Config) { c.TracingExporter = "jaeger" }},
		{"otlp tracing without endpoint", func(c *Config) { c.TracingExporter = ExporterOTLP }},
		{"prometheus in a function", func(c *Config) { c.Runtime = RuntimeFunction }},
		{"unknown runtime", func(c *Config) { c.Runtime = "lambda" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testConfig(RuntimeServer, ExporterPrometheus)
			tt.mutate(&config)

			if _, err := NewProvider(context.Background(), config); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestNewProvider_DefaultsToServerRuntime(t *testing.T) {
	provider := newTestProvider(t, testConfig("", ExporterPrometheus))

	if provider.Runtime() != RuntimeServer {
		t.Errorf("expected runtime %q, got %q", RuntimeServer, provider.Runtime())
	}
	if provider.PrometheusHandler() == nil {
		t.Error("expected a Prometheus handler for the server runtime")
	}
}

func TestProvider_PrometheusHandlerServesOwnRegistry(t *testing.T) {
	ctx := context.Background()
	first := newTestProvider(t, testConfig(RuntimeServer, ExporterPrometheus))
	second := newTestProvider(t, testConfig(RuntimeServer, ExporterPrometheus))

	first.Metrics().RecordKakaoAPIOperation(ctx, ServiceLocal, OperationSearch, StatusSuccess, 50*time.Millisecond)

	scrape := func(p *Provider) string {
		rec := httptest.NewRecorder()
		p.PrometheusHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		return rec.Body.String()
	}

	body := scrape(first)
	if !strings.Contains(body, "kakao_api_operations_total") {
		t.Error("expected kakao_api_operations_total in the scrape output")
	}
	if !strings.Contains(body, `focusmate_runtime="server"`) {
		t.Error("expected the runtime in target_info")
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Error("expected Go runtime metrics")
	}

	if strings.Contains(scrape(second), "kakao_api_operations_total") {
		t.Error("a provider must not expose series recorded by another provider")
	}
}

func TestProvider_FunctionRuntimePushesOnFlush(t *testing.T) {
	var pushed bytes.Buffer
	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(&pushed))
	if err != nil {
		t.Fatalf("failed to create exporter: %v", err)
	}
	// a long interval so only ForceFlush can export
	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(time.Hour))
	spans := tracetest.NewInMemoryExporter()

	provider := newTestProvider(t, testConfig(RuntimeFunction, ExporterStdout),
		WithMetricReader(reader),
		WithSpanExporter(spans),
	)

	handler := provider.FlushAfter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, span := StartToolSpan(r.Context(), "search_places")
		provider.Metrics().RecordToolInvocation(r.Context(), "search_places", StatusSuccess, 10*time.Millisecond)
		span.End()
		w.WriteHeader(http.StatusOK)
	}), nil)

	if pushed.Len() != 0 {
		t.Fatal("expected nothing exported before a request")
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/mcp", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(pushed.String(), "mcp_tool_invocations_total") {
		t.Errorf("expected the invocation to be pushed after the request, got %q", pushed.String())
	}
	if got := len(spans.GetSpans()); got != 1 {
		t.Errorf("expected 1 exported span, got %d", got)
	}
}

func TestProvider_WithMetricReader(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := newTestProvider(t, testConfig(RuntimeServer, ExporterPrometheus), WithMetricReader(reader))

	if provider.PrometheusHandler() != nil {
		t.Error("an injected reader replaces the Prometheus exporter")
	}

	provider.Metrics().RecordToolFailure(ctx, "create_calendar_event", "config_missing")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	runtime, ok := rm.Resource.Set().Value(RuntimeAttribute)
	if !ok || runtime.AsString() != RuntimeServer {
		t.Errorf("expected resource attribute %s=%s, got %v", RuntimeAttribute, RuntimeServer, runtime)
	}

	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "mcp_tool_failures_total" {
				found = true
			}
		}
	}
	if !found {
		t.Error("expected mcp_tool_failures_total to be collected")
	}
}
