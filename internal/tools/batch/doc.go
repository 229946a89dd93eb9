// Package batch provides helpers for MCP tools that act on several ids in one
// call.
//
// This package includes helpers for:
//   - Parsing id parameters given as a string, a comma-separated string, a
//     JSON array string, or an array
//   - Looking up each id and summarizing found, missing and failed items
package batch
