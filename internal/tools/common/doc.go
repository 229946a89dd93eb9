// Package common provides shared utilities for MCP tool implementations.
// It wraps tool handlers with tracing, metrics and audit logging so that
// every tool package reports invocations the same way.
package common
