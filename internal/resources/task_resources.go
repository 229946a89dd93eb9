package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/taskplugin/internal/server"
	"github.com/teemow/taskplugin/internal/tasks"
)

const (
	// TaskURITemplate addresses a single task by id.
	TaskURITemplate = "content://" + tasks.Authority + "/" + tasks.ResourceTasks + "/{id}"

	// ConfigURI addresses the plugin description.
	ConfigURI = "plugin://tasks/config"

	mimeJSON = "application/json"
)

// ErrTaskNotFound is returned when a task URI does not resolve to a due task.
var ErrTaskNotFound = errors.New("task not found")

// PluginConfig is the document served at ConfigURI.
type PluginConfig struct {
	Authority       string   `json:"authority"`
	StorageStrategy string   `json:"storageStrategy"`
	TaskURITemplate string   `json:"taskUriTemplate"`
	Resources       []string `json:"resources"`
}

// RegisterTaskResources registers the task template and the config resource.
func RegisterTaskResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc == nil || sc.Provider() == nil {
		return errors.New("server context with a tasks provider is required")
	}

	taskTemplate := mcp.NewResourceTemplate(
		TaskURITemplate,
		"Task",
		mcp.WithTemplateDescription("A single task as a calendar event, addressed by the URI returned in search results"),
		mcp.WithTemplateMIMEType(mimeJSON),
	)
	s.AddResourceTemplate(taskTemplate, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleTask(ctx, request, sc)
	})

	configResource := mcp.NewResource(
		ConfigURI,
		"Tasks Plugin Config",
		mcp.WithResourceDescription("How results from this plugin may be stored by the host"),
		mcp.WithMIMEType(mimeJSON),
	)
	s.AddResource(configResource, func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleConfig(request, sc)
	})

	return nil
}

// handleTask resolves a task URI through the provider.
func handleTask(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	event, err := sc.Provider().GetByURI(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to read task %s: %w", uri, err)
	}
	if event == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, uri)
	}
	return jsonContents(uri, event)
}

func handleConfig(request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	cfg := sc.Provider().QueryConfig()
	return jsonContents(request.Params.URI, PluginConfig{
		Authority:       tasks.Authority,
		StorageStrategy: string(cfg.StorageStrategy),
		TaskURITemplate: TaskURITemplate,
		Resources:       []string{tasks.AgendaURI, tasks.ListsURI},
	})
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource data: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(jsonData),
		},
	}, nil
}
