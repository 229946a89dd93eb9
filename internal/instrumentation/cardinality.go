package instrumentation

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.
//
// # Warning
//
// High cardinality in metrics can cause:
// - Increased memory usage in Prometheus/metrics backends
// - Slower query performance
// - Higher storage costs
//
// Always use these helpers when recording metrics with request-controlled values.

// PathOther replaces HTTP paths that are not served by the plugin.
const PathOther = "other"

// knownPaths are the HTTP paths served by the MCP and metrics servers.
var knownPaths = map[string]bool{
	"/mcp":              true,
	"/metrics":          true,
	"/healthz":          true,
	"/readyz":           true,
	"/healthz/detailed": true,
}

// NormalizePath maps an HTTP request path to a bounded label value.
// Clients can request arbitrary paths, so anything unknown becomes PathOther.
//
// Example:
//
//	NormalizePath("/mcp")          // "/mcp"
//	NormalizePath("/wp-login.php") // "other"
func NormalizePath(path string) string {
	if knownPaths[path] {
		return path
	}
	return PathOther
}

// Common provider operation types for content metrics.
// Status and exporter constants are defined in config.go.
const (
	OperationSearch = "search"
	OperationGet    = "get"
	OperationLists  = "lists"
)
