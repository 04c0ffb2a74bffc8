package instrumentation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// RuntimeAttribute tags every metric and span with the entry runtime.
const RuntimeAttribute = "focusmate.runtime"

// Provider owns the meter and tracer providers of one focusmate process:
// a long-running server scraped over Prometheus, or a function instance
// that pushes after every request.
type Provider struct {
	config         Config
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	metrics        *Metrics
	registry       *promclient.Registry
	enabled        bool
}

// ProviderOption customizes NewProvider.
type ProviderOption func(*providerOptions)

type providerOptions struct {
	reader       metric.Reader
	spanExporter sdktrace.SpanExporter
}

// WithMetricReader replaces the reader chosen from Config.MetricsExporter.
func WithMetricReader(r metric.Reader) ProviderOption {
	return func(o *providerOptions) { o.reader = r }
}

// WithSpanExporter replaces the exporter chosen from Config.TracingExporter.
// Spans are then always sampled.
func WithSpanExporter(e sdktrace.SpanExporter) ProviderOption {
	return func(o *providerOptions) { o.spanExporter = e }
}

// NewProvider builds the providers described by config and installs them as
// the global OpenTelemetry providers. A disabled config yields a provider
// whose Metrics records nothing.
func NewProvider(ctx context.Context, config Config, opts ...ProviderOption) (*Provider, error) {
	if !config.Enabled {
		return &Provider{config: config, metrics: &Metrics{}}, nil
	}
	if config.Runtime == "" {
		config.Runtime = RuntimeServer
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var o providerOptions
	for _, opt := range opts {
		opt(&o)
	}

	res, err := newResource(ctx, config)
	if err != nil {
		return nil, err
	}

	p := &Provider{config: config, enabled: true}

	reader := o.reader
	if reader == nil {
		if reader, err = p.metricReader(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize meter provider: %w", err)
		}
	}
	p.meterProvider = metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(reader),
	)

	if p.tracerProvider, err = p.newTracerProvider(ctx, res, o.spanExporter); err != nil {
		if shutdownErr := p.meterProvider.Shutdown(ctx); shutdownErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to shutdown meter provider during cleanup: %w", shutdownErr))
		}
		return nil, fmt.Errorf("failed to initialize tracer provider: %w", err)
	}

	// StartToolSpan and StartKakaoAPISpan go through the global provider
	otel.SetMeterProvider(p.meterProvider)
	otel.SetTracerProvider(p.tracerProvider)

	p.metrics, err = NewMetrics(p.meterProvider.Meter(config.ServiceName), config.DetailedLabels)
	if err != nil {
		_ = p.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create metrics recorder: %w", err)
	}

	return p, nil
}

func newResource(ctx context.Context, config Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceVersion(config.ServiceVersion),
		attribute.String(RuntimeAttribute, config.Runtime),
	}

	instanceID := config.ServiceInstanceID
	if instanceID == "" {
		instanceID, _ = os.Hostname()
	}
	if instanceID != "" {
		attrs = append(attrs, semconv.ServiceInstanceID(instanceID))
	}

	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// metricReader picks the reader for the configured exporter. Prometheus
// collects into a registry owned by this provider so /metrics only shows
// focusmate series plus the Go runtime.
func (p *Provider) metricReader(ctx context.Context) (metric.Reader, error) {
	switch p.config.MetricsExporter {
	case ExporterPrometheus:
		reg := promclient.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		p.registry = reg
		return exporter, nil

	case ExporterOTLP:
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(p.config.OTLPEndpoint)}
		if p.config.OTLPInsecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		// A function instance is flushed per request by ForceFlush
		return metric.NewPeriodicReader(exporter), nil

	case ExporterStdout:
		slog.Warn("stdout metrics exporter enabled, for development only",
			"component", "instrumentation",
			"runtime", p.config.Runtime,
		)
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout metrics exporter: %w", err)
		}
		return metric.NewPeriodicReader(exporter), nil

	default:
		return nil, fmt.Errorf("unsupported metrics exporter: %s", p.config.MetricsExporter)
	}
}

func (p *Provider) newTracerProvider(ctx context.Context, res *resource.Resource, exporter sdktrace.SpanExporter) (*sdktrace.TracerProvider, error) {
	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(p.config.TraceSamplingRate))

	if exporter == nil {
		var err error
		switch p.config.TracingExporter {
		case ExporterNone, "":
			return sdktrace.NewTracerProvider(
				sdktrace.WithResource(res),
				sdktrace.WithSampler(sdktrace.NeverSample()),
			), nil

		case ExporterOTLP:
			opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(p.config.OTLPEndpoint)}
			if p.config.OTLPInsecure {
				slog.Warn("OTLP insecure transport enabled, use only for development",
					"component", "instrumentation",
					"endpoint", p.config.OTLPEndpoint,
				)
				opts = append(opts, otlptracehttp.WithInsecure())
			}
			if exporter, err = otlptracehttp.New(ctx, opts...); err != nil {
				return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
			}

		case ExporterStdout:
			if exporter, err = stdouttrace.New(); err != nil {
				return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
			}

		default:
			return nil, fmt.Errorf("unsupported tracing exporter: %s", p.config.TracingExporter)
		}
	} else {
		sampler = sdktrace.AlwaysSample()
	}

	// A function may be frozen right after its response, so spans are
	// exported synchronously there.
	process := sdktrace.WithBatcher(exporter)
	if p.config.Runtime == RuntimeFunction {
		process = sdktrace.WithSyncer(exporter)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		process,
		sdktrace.WithSampler(sampler),
	), nil
}

// Metrics returns the recorder wired into the server context.
func (p *Provider) Metrics() *Metrics {
	return p.metrics
}

// Tracer returns a tracer for creating spans.
func (p *Provider) Tracer(name string) trace.Tracer {
	if !p.enabled || p.tracerProvider == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return p.tracerProvider.Tracer(name)
}

// PrometheusHandler returns the /metrics handler, or nil when the Prometheus
// exporter is not configured.
func (p *Provider) PrometheusHandler() http.Handler {
	if p.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Runtime reports the runtime the provider was built for.
func (p *Provider) Runtime() string {
	return p.config.Runtime
}

// ForceFlush pushes everything recorded so far. The function runtime calls
// it after each request.
func (p *Provider) ForceFlush(ctx context.Context) error {
	if !p.enabled {
		return nil
	}
	return errors.Join(
		p.meterProvider.ForceFlush(ctx),
		p.tracerProvider.ForceFlush(ctx),
	)
}

// FlushAfter wraps next so telemetry is pushed once each request is served.
// Flush failures are logged and never change the response.
func (p *Provider) FlushAfter(next http.Handler, logger *slog.Logger) http.Handler {
	if !p.enabled {
		return next
	}
	if logger == nil {
		logger = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		if err := p.ForceFlush(context.WithoutCancel(r.Context())); err != nil {
			logger.Warn("failed to flush telemetry", "error", err)
		}
	})
}

// Shutdown flushes and stops both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.enabled {
		return nil
	}

	var errs []error
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
		}
	}
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Enabled returns true if instrumentation is enabled.
func (p *Provider) Enabled() bool {
	return p.enabled
}
