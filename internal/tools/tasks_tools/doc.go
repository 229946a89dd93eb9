// Package tasks_tools provides MCP tools that expose the Tasks app through
// the tasks provider.
//
// # Available Tools
//
//   - tasks_search: Search due tasks by text, time range and excluded lists
//   - tasks_get: Get a single task by id
//   - tasks_get_many: Get several tasks by id, reporting each outcome
//   - tasks_list_calendars: List the task lists usable as search filters
//   - tasks_plugin_state: Report whether the plugin is ready or needs setup
//
// All tools are read-only. While the read permission is missing the data
// tools return empty results; tasks_plugin_state tells the client which
// setup action is required.
package tasks_tools
