// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for the focusmate MCP server.
//
// # Metrics
//
// HTTP:
//   - http_requests_total: requests by method, normalized path and status
//   - http_request_duration_seconds: request durations
//
// Kakao API:
//   - kakao_api_operations_total: calls by service (local, calendar, talk), operation and status
//   - kakao_api_operation_duration_seconds: call durations
//
// MCP tools:
//   - mcp_tool_invocations_total: invocations by tool and status
//   - mcp_tool_duration_seconds: execution durations
//   - mcp_tool_failures_total: failures by tool and error kind
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>) and Kakao API
// calls (kakao.<service>.<operation>).
//
// # Configuration
//
// DefaultConfig reads:
//   - INSTRUMENTATION_ENABLED: enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: service name (default: focusmate)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_ERRORS
//
// # Runtimes
//
// The long-running server (DefaultConfig) is scraped over Prometheus from a
// registry owned by the provider. A serverless function (FunctionConfig)
// cannot be scraped: it pushes over OTLP, and FlushAfter calls ForceFlush
// once each request is served. Every series carries focusmate.runtime.
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	metrics := provider.Metrics()
//	metrics.RecordKakaoAPIOperation(ctx, instrumentation.ServiceLocal,
//		instrumentation.OperationSearch, instrumentation.StatusSuccess, time.Since(start))
package instrumentation
