package tasks_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/taskplugin/internal/calendar"
	"github.com/teemow/taskplugin/internal/logging"
	"github.com/teemow/taskplugin/internal/server"
	"github.com/teemow/taskplugin/internal/tasks"
	"github.com/teemow/taskplugin/internal/tools/batch"
	"github.com/teemow/taskplugin/internal/tools/common"
)

// Tool names.
const (
	ToolSearch        = "tasks_search"
	ToolGet           = "tasks_get"
	ToolGetMany       = "tasks_get_many"
	ToolListCalendars = "tasks_list_calendars"
	ToolPluginState   = "tasks_plugin_state"
)

// RegisterTasksTools registers all Tasks tools with the MCP server.
func RegisterTasksTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc == nil || sc.Provider() == nil {
		return fmt.Errorf("server context with a tasks provider is required")
	}

	searchTool := mcp.NewTool(ToolSearch,
		mcp.WithDescription("Search tasks with a due date. Returns calendar events whose end time is the task's due time. Returns an empty list while the read permission is missing; see tasks_plugin_state."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("query",
			mcp.Description("Only return tasks whose title contains this text"),
		),
		mcp.WithString("start",
			mcp.Description("Earliest due time (RFC3339, YYYY-MM-DD or epoch milliseconds), inclusive"),
		),
		mcp.WithString("end",
			mcp.Description("Latest due time (RFC3339, YYYY-MM-DD or epoch milliseconds), inclusive"),
		),
		mcp.WithString("excludedCalendars",
			mcp.Description("Comma-separated list ids whose tasks are left out (see tasks_list_calendars)"),
		),
	)
	s.AddTool(searchTool, common.InstrumentedToolHandler(ToolSearch,
		common.Target{Resource: tasks.ResourceAgenda, Operation: tasks.OperationSearch},
		sc, searchHandler(sc)))

	getTool := mcp.NewTool(ToolGet,
		mcp.WithDescription("Get a single task by id. Returns null when the task does not exist, has no due date or cannot be read."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The task id as returned by tasks_search"),
		),
	)
	s.AddTool(getTool, common.InstrumentedToolHandler(ToolGet,
		common.Target{Resource: tasks.ResourceAgenda, Operation: tasks.OperationGet},
		sc, getHandler(sc)))

	getManyTool := mcp.NewTool(ToolGetMany,
		mcp.WithDescription("Get several tasks by id in one call. Each id is reported as success, not_found or error."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithArray("ids",
			mcp.Required(),
			mcp.Description(fmt.Sprintf("Task ids as returned by tasks_search (at most %d). A comma-separated string is accepted too.", batch.MaxItems)),
			mcp.WithStringItems(),
		),
	)
	s.AddTool(getManyTool, common.InstrumentedToolHandler(ToolGetMany,
		common.Target{Resource: tasks.ResourceAgenda, Operation: tasks.OperationGet},
		sc, getManyHandler(sc)))

	listsTool := mcp.NewTool(ToolListCalendars,
		mcp.WithDescription("List the Tasks app's task lists. Their ids can be passed to tasks_search as excludedCalendars."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(listsTool, common.InstrumentedToolHandler(ToolListCalendars,
		common.Target{Resource: tasks.ResourceLists, Operation: tasks.OperationLists},
		sc, listCalendarsHandler(sc)))

	stateTool := mcp.NewTool(ToolPluginState,
		mcp.WithDescription("Report whether the Tasks plugin is ready. When setup is required the result names the action that resolves it: open a URL to install the Tasks app, or run a command to grant the read permission."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(stateTool, common.InstrumentedToolHandler(ToolPluginState,
		common.Target{},
		sc, pluginStateHandler(sc)))

	return nil
}

func searchHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q, err := searchQuery(request, time.Local)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		events, err := sc.Provider().Search(ctx, q)
		if err != nil {
			logging.WithTool(sc.Logger(), ToolSearch).ErrorContext(ctx, "search failed", logging.Err(err))
			return mcp.NewToolResultError(fmt.Sprintf("Failed to search tasks: %v", err)), nil
		}
		common.SetResultCount(ctx, len(events))

		return jsonResult(events)
	}
}

// searchQuery builds a calendar.Query from tool arguments.
func searchQuery(request mcp.CallToolRequest, loc *time.Location) (calendar.Query, error) {
	var q calendar.Query

	if text := request.GetString("query", ""); text != "" {
		q.Text = &text
	}

	start, err := parseTimeArg("start", request.GetString("start", ""), loc)
	if err != nil {
		return q, err
	}
	end, err := parseTimeArg("end", request.GetString("end", ""), loc)
	if err != nil {
		return q, err
	}
	if start != nil && end != nil && *start > *end {
		return q, fmt.Errorf("start must not be after end")
	}
	q.Start, q.End = start, end

	q.ExcludedCalendars = splitIDs(request.GetString("excludedCalendars", ""))
	return q, nil
}

func getHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil || strings.TrimSpace(id) == "" {
			return mcp.NewToolResultError("id is required"), nil
		}

		event, err := sc.Provider().Get(ctx, strings.TrimSpace(id))
		if err != nil {
			logging.WithTool(sc.Logger(), ToolGet).ErrorContext(ctx, "get failed", logging.Err(err))
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get task: %v", err)), nil
		}
		if event == nil {
			common.SetResultCount(ctx, 0)
			return mcp.NewToolResultText("null"), nil
		}
		common.SetResultCount(ctx, 1)

		return jsonResult(event)
	}
}

func getManyHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := batch.ParseIDs(request.GetArguments()["ids"], "ids")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		summary := batch.Process(ctx, ids, sc.Provider().Get)
		if summary.Failed > 0 {
			logging.WithTool(sc.Logger(), ToolGetMany).WarnContext(ctx, "some lookups failed",
				"failed", summary.Failed, "total", summary.Total)
		}
		common.SetResultCount(ctx, summary.Successful)

		return jsonResult(summary)
	}
}

func listCalendarsHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		lists, err := sc.Provider().CalendarLists(ctx)
		if err != nil {
			logging.WithTool(sc.Logger(), ToolListCalendars).ErrorContext(ctx, "listing calendars failed", logging.Err(err))
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list task lists: %v", err)), nil
		}
		common.SetResultCount(ctx, len(lists))

		return jsonResult(lists)
	}
}

func pluginStateHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(sc.Provider().PluginState(ctx))
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
