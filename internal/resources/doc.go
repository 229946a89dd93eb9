// Package resources provides MCP resources for the Tasks plugin.
// Resources are read-only data sources that MCP clients can fetch: single
// tasks addressed by their content URI, and the plugin's query config.
package resources
