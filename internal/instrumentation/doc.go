// Package instrumentation provides OpenTelemetry instrumentation for the
// taskplugin MCP server.
//
// This package enables observability through:
//   - OpenTelemetry metrics for HTTP requests, content provider queries and tool calls
//   - Distributed tracing for tool invocations and content queries
//   - Prometheus metrics export via /metrics endpoint on dedicated port
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//   - active_sessions: Gauge of connected MCP client sessions
//
// Content Provider Metrics:
//   - content_queries_total: Counter of queries by resource, operation and status
//   - content_query_duration_seconds: Histogram of query durations
//   - content_rows_total: Counter of rows read by resource and outcome (mapped, dropped)
//   - plugin_state_checks_total: Counter of readiness checks by resulting state
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>) and content
// queries (content.<resource>.<operation>).
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - TASKPLUGIN_INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - TASKPLUGIN_METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TASKPLUGIN_TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: taskplugin)
//
// The stdout exporters write to stderr, since stdout carries the MCP stdio
// transport.
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordProviderQuery(ctx, "todoagenda", "search", "success", time.Since(start))
//	recorder.RecordToolInvocation(ctx, "tasks_search", "success", time.Since(start))
package instrumentation
