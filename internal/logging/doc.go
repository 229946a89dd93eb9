// Package logging provides structured logging utilities for taskplugin.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Logger construction from configuration (level and text/JSON format)
//   - Consistent attribute naming across the codebase
//   - Redaction of user-entered text such as search queries
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "tasks.search")
//	logger.Info("search completed",
//	    logging.Status("success"))
//
// Redact user text before logging:
//
//	logger.Debug("searching tasks", logging.Query(q.Text))
//
// # Security Considerations
//
// Task titles, notes and search queries are user data and are never logged
// verbatim; only their length is recorded.
package logging
