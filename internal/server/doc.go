// Package server provides the MCP server context and the HTTP servers that
// expose the taskplugin over the streamable-http transport.
//
// # Key Components
//
// ServerContext carries the tasks Provider and the shared instrumentation
// (metrics, audit logger) to tool and resource handlers.
//
// HTTPServer serves the MCP endpoint at /mcp together with health endpoints:
//   - /healthz: liveness
//   - /readyz: readiness, including the plugin setup state
//   - /healthz/detailed: uptime, plugin state and active sessions
//
// Every request passes through the metrics middleware. The MCP endpoint is
// additionally guarded by a per-IP rate limiter.
//
// MetricsServer exposes Prometheus metrics on a dedicated port, separate from
// MCP traffic.
//
// SessionTracker counts connected MCP clients through mcp-go session hooks.
package server
