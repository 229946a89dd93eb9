// Package cmd implements the command-line interface for taskplugin.
//
// This package provides the following commands:
//   - serve: Start the MCP server exposing the Tasks app to a host
//   - search: Search due tasks and print them as JSON
//   - get: Print a single task as JSON
//   - lists: Print the Tasks app's lists as JSON
//   - state: Print whether the plugin is ready or needs setup
//   - request-permission: Ask for the permission to read tasks
//   - export: Write due tasks as an iCalendar stream
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified,
// which is how a host launches the plugin.
package cmd
