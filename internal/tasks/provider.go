package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/taskplugin/internal/calendar"
	"github.com/teemow/taskplugin/internal/contentprovider"
	"github.com/teemow/taskplugin/internal/instrumentation"
	"github.com/teemow/taskplugin/internal/logging"
	"github.com/teemow/taskplugin/internal/packages"
	"github.com/teemow/taskplugin/internal/permission"
	"github.com/teemow/taskplugin/internal/plugin"
)

// Defaults for Options.
const (
	DefaultWebsiteURL     = "https://tasks.org/"
	DefaultRequestCommand = "taskplugin request-permission"
)

// Setup messages reported by PluginState.
const (
	MessageNotInstalled     = "The Tasks app is not installed"
	MessagePermissionDenied = "Permission to read tasks has not been granted"
)

// Provider operation names used in logs, spans and metrics.
const (
	OperationSearch = "search"
	OperationGet    = "get"
	OperationLists  = "lists"
)

// Query outcome statuses reported to the Recorder.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusNotFound = "not_found"
	StatusDenied   = "denied"
)

// Recorder receives provider measurements. *instrumentation.Metrics implements it.
type Recorder interface {
	RecordProviderQuery(ctx context.Context, resource, operation, status string, duration time.Duration)
	RecordRows(ctx context.Context, resource string, mapped, dropped int)
	RecordStateCheck(ctx context.Context, state string)
}

// Options configures a Provider.
type Options struct {
	// Resolver queries the Tasks app's content resources. Required.
	Resolver contentprovider.Resolver

	// Packages reports whether the Tasks app is installed. Required.
	Packages packages.Manager

	// Permissions reports whether the read permission was granted. Required.
	Permissions permission.Checker

	// WebsiteURL is offered to the user when the Tasks app is missing.
	WebsiteURL string

	// RequestCommand is offered to the user when the permission is missing.
	RequestCommand string

	Logger   *slog.Logger
	Recorder Recorder
}

// Provider serves Tasks app data to the host. It holds no mutable state and
// is safe for concurrent use.
type Provider struct {
	resolver       contentprovider.Resolver
	packages       packages.Manager
	permissions    permission.Checker
	websiteURL     string
	requestCommand string
	logger         *slog.Logger
	recorder       Recorder
}

// NewProvider creates a Provider.
func NewProvider(opts Options) (*Provider, error) {
	if opts.Resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if opts.Packages == nil {
		return nil, errors.New("package manager is required")
	}
	if opts.Permissions == nil {
		return nil, errors.New("permission checker is required")
	}

	p := &Provider{
		resolver:       opts.Resolver,
		packages:       opts.Packages,
		permissions:    opts.Permissions,
		websiteURL:     opts.WebsiteURL,
		requestCommand: opts.RequestCommand,
		logger:         opts.Logger,
		recorder:       opts.Recorder,
	}
	if p.websiteURL == "" {
		p.websiteURL = DefaultWebsiteURL
	}
	if p.requestCommand == "" {
		p.requestCommand = DefaultRequestCommand
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = p.logger.With(slog.String("authority", Authority))
	return p, nil
}

// QueryConfig returns how the host may store results from this provider.
func (p *Provider) QueryConfig() plugin.QueryConfig {
	return plugin.DefaultQueryConfig()
}

// PluginState reports whether the provider can serve data. It is derived
// fresh on every call.
func (p *Provider) PluginState(ctx context.Context) plugin.State {
	var state plugin.State
	switch {
	case !packages.IsInstalled(p.packages, Authority):
		state = plugin.SetupRequired(MessageNotInstalled, plugin.SetupAction{
			Kind:   plugin.ActionOpenURL,
			Target: p.websiteURL,
		})
	case !p.permissions.Granted(permission.ReadTasks):
		state = plugin.SetupRequired(MessagePermissionDenied, plugin.SetupAction{
			Kind:   plugin.ActionRunCommand,
			Target: p.requestCommand,
		})
	default:
		state = plugin.Ready()
	}

	if p.recorder != nil {
		p.recorder.RecordStateCheck(ctx, string(state.Kind))
	}
	p.logger.DebugContext(ctx, "plugin state checked", logging.State(state.String()))
	return state
}

// Search returns the tasks matching q. Without the read permission, or when
// the Tasks app has no data, it returns an empty slice.
func (p *Provider) Search(ctx context.Context, q calendar.Query) ([]calendar.Event, error) {
	if !p.permitted(ctx, ResourceAgenda, OperationSearch) {
		return []calendar.Event{}, nil
	}

	sel := BuildSelection(q, contentprovider.SupportsBinding(p.resolver))
	logging.WithOperation(p.logger, OperationSearch).DebugContext(ctx, "searching tasks",
		logging.Query(q.Text),
		slog.Int("excluded_lists", len(q.ExcludedCalendars)),
		slog.Bool("bounded", q.Start != nil || q.End != nil))

	return p.queryEvents(ctx, OperationSearch, sel)
}

// Get returns the task with the given id, or nil when there is no such task,
// the id isn't numeric, or the read permission is missing.
func (p *Provider) Get(ctx context.Context, id string) (*calendar.Event, error) {
	if !p.permitted(ctx, ResourceAgenda, OperationGet) {
		return nil, nil
	}
	n, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	events, err := p.queryEvents(ctx, OperationGet, idSelection(n, contentprovider.SupportsBinding(p.resolver)))
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}

// GetByURI resolves a URI built by TaskURI. Unknown URIs yield nil.
func (p *Provider) GetByURI(ctx context.Context, uri string) (*calendar.Event, error) {
	id, ok := TaskIDFromURI(uri)
	if !ok {
		return nil, nil
	}
	return p.Get(ctx, id)
}

// CalendarLists returns the Tasks app's lists. Without the read permission,
// or when the Tasks app has no data, it returns an empty slice.
func (p *Provider) CalendarLists(ctx context.Context) ([]calendar.List, error) {
	if !p.permitted(ctx, ResourceLists, OperationLists) {
		return []calendar.List{}, nil
	}

	return runQuery(ctx, p, ResourceLists, OperationLists, ListsURI, listProjection, contentprovider.Selection{}, readLists)
}

func (p *Provider) queryEvents(ctx context.Context, operation string, sel contentprovider.Selection) ([]calendar.Event, error) {
	return runQuery(ctx, p, ResourceAgenda, operation, AgendaURI, taskProjection, sel, readEvents)
}

// runQuery queries one resource and decodes every row with read. A missing
// provider or a nil cursor yields an empty result.
func runQuery[T any](
	ctx context.Context,
	p *Provider,
	resource, operation, uri string,
	projection []string,
	sel contentprovider.Selection,
	read func(contentprovider.Cursor) ([]T, decodeStats, error),
) ([]T, error) {
	ctx, span := instrumentation.StartProviderSpan(ctx, resource, operation)
	defer span.End()

	start := time.Now()
	cursor, err := p.resolver.Query(ctx, uri, projection, sel)
	if err != nil {
		if errors.Is(err, contentprovider.ErrProviderNotFound) {
			p.finish(ctx, resource, operation, StatusNotFound, start, nil)
			instrumentation.SetSpanSuccess(span)
			return []T{}, nil
		}
		p.finish(ctx, resource, operation, StatusError, start, err)
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to query %s: %w", resource, err)
	}
	if cursor == nil {
		p.finish(ctx, resource, operation, StatusNotFound, start, nil)
		instrumentation.SetSpanSuccess(span)
		return []T{}, nil
	}

	items, stats, err := read(cursor)
	if err != nil {
		p.finish(ctx, resource, operation, StatusError, start, err)
		instrumentation.SetSpanError(span, err)
		return nil, err
	}
	p.recordRows(ctx, resource, stats)
	p.finish(ctx, resource, operation, StatusSuccess, start, nil)
	span.SetAttributes(
		attribute.Int(instrumentation.SpanAttrRowsMapped, stats.mapped),
		attribute.Int(instrumentation.SpanAttrRowsDropped, stats.dropped),
	)
	instrumentation.SetSpanSuccess(span)
	return items, nil
}

// permitted reports whether the read permission is granted. A denied call is
// recorded without touching the resolver.
func (p *Provider) permitted(ctx context.Context, resource, operation string) bool {
	if p.permissions.Granted(permission.ReadTasks) {
		return true
	}
	p.logger.DebugContext(ctx, "read permission not granted",
		logging.Operation(operation), logging.Status(StatusDenied))
	if p.recorder != nil {
		p.recorder.RecordProviderQuery(ctx, resource, operation, StatusDenied, 0)
	}
	return false
}

func (p *Provider) recordRows(ctx context.Context, resource string, stats decodeStats) {
	if stats.dropped > 0 {
		p.logger.DebugContext(ctx, "skipped incomplete rows",
			logging.Resource(resource), slog.Int("dropped", stats.dropped))
	}
	if p.recorder != nil {
		p.recorder.RecordRows(ctx, resource, stats.mapped, stats.dropped)
	}
}

func (p *Provider) finish(ctx context.Context, resource, operation, status string, start time.Time, err error) {
	d := time.Since(start)
	if p.recorder != nil {
		p.recorder.RecordProviderQuery(ctx, resource, operation, status, d)
	}
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelWarn
	}
	p.logger.Log(ctx, level, "content query finished",
		logging.Resource(resource),
		logging.Operation(operation),
		logging.Status(status),
		logging.Duration(d),
		logging.Err(err))
}
