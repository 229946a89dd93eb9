package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/taskplugin/internal/calendar"
	"github.com/teemow/taskplugin/internal/contentprovider"
	"github.com/teemow/taskplugin/internal/packages"
	"github.com/teemow/taskplugin/internal/permission"
	"github.com/teemow/taskplugin/internal/plugin"
	"github.com/teemow/taskplugin/internal/testutil"
)

type staticChecker bool

func (c staticChecker) Granted(string) bool { return bool(c) }

// countingResolver counts queries before delegating to next. With no next
// resolver every query fails.
type countingResolver struct {
	next  contentprovider.Resolver
	calls int
	last  contentprovider.Selection
}

func (r *countingResolver) Query(ctx context.Context, uri string, projection []string, sel contentprovider.Selection) (contentprovider.Cursor, error) {
	r.calls++
	r.last = sel
	if r.next == nil {
		return nil, errors.New("unexpected query")
	}
	return r.next.Query(ctx, uri, projection, sel)
}

type errResolver struct{ err error }

func (r errResolver) Query(context.Context, string, []string, contentprovider.Selection) (contentprovider.Cursor, error) {
	return nil, r.err
}

type nilResolver struct{}

func (nilResolver) Query(context.Context, string, []string, contentprovider.Selection) (contentprovider.Cursor, error) {
	return nil, nil
}

type queryRecord struct {
	resource, operation, status string
}

type fakeRecorder struct {
	mu      sync.Mutex
	queries []queryRecord
	mapped  map[string]int
	dropped map[string]int
	states  []string
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{mapped: map[string]int{}, dropped: map[string]int{}}
}

func (r *fakeRecorder) RecordProviderQuery(_ context.Context, resource, operation, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, queryRecord{resource, operation, status})
}

func (r *fakeRecorder) RecordRows(_ context.Context, resource string, mapped, dropped int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mapped[resource] += mapped
	r.dropped[resource] += dropped
}

func (r *fakeRecorder) RecordStateCheck(_ context.Context, state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func fixtureLists() []testutil.List {
	return []testutil.List{
		{ID: 1, UUID: "work", Name: testutil.Ptr("Work"), Color: testutil.Ptr(int64(255))},
		{ID: 2, UUID: "home", Name: testutil.Ptr("Home")},
		{ID: 3, UUID: "nameless"},
	}
}

func fixtureTasks() []testutil.Task {
	return []testutil.Task{
		{ID: 1, Title: testutil.Ptr("Buy milk"), Due: testutil.Ptr(int64(100)), ListUUID: "work"},
		{ID: 2, Title: testutil.Ptr("Call OBrien"), Due: testutil.Ptr(int64(150)), ListUUID: "home", Notes: testutil.Ptr("about the fence")},
		{ID: 3, Title: testutil.Ptr("Pay rent"), Due: testutil.Ptr(int64(200)), Completed: testutil.Ptr(int64(1700000000000))},
		{ID: 4, Title: testutil.Ptr("Late"), Due: testutil.Ptr(int64(250))},
		{ID: 5, Due: testutil.Ptr(int64(120))},
		{ID: 6, Title: testutil.Ptr("No due")},
		{ID: 7, Title: testutil.Ptr("Deleted"), Due: testutil.Ptr(int64(150)), Deleted: true},
		{ID: 8, Title: testutil.Ptr("Zero due"), Due: testutil.Ptr(int64(0))},
		{ID: 9, Title: testutil.Ptr("Nameless list"), Due: testutil.Ptr(int64(300)), ListUUID: "nameless"},
		{ID: 10, Title: testutil.Ptr("Timed"), Due: testutil.Ptr(int64(120001)), ListUUID: "work"},
	}
}

type fixture struct {
	provider *Provider
	dbPath   string
	recorder *fakeRecorder
}

func newFixture(t *testing.T, bind bool, granted bool) fixture {
	t.Helper()
	dbPath := testutil.NewTasksDB(t, fixtureLists(), fixtureTasks())
	return newFixtureForDB(t, dbPath, bind, granted)
}

func newFixtureForDB(t *testing.T, dbPath string, bind bool, granted bool) fixture {
	t.Helper()
	resolver, err := contentprovider.NewSQLiteResolver(contentprovider.SQLiteConfig{
		Authority:      Authority,
		Path:           dbPath,
		BindParameters: bind,
		Resources:      Resources(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = resolver.Close() })

	recorder := newFakeRecorder()
	p, err := NewProvider(Options{
		Resolver:    resolver,
		Packages:    packages.NewFSManager(map[string]string{Authority: dbPath}),
		Permissions: staticChecker(granted),
		Recorder:    recorder,
	})
	require.NoError(t, err)
	return fixture{provider: p, dbPath: dbPath, recorder: recorder}
}

func eventIDs(events []calendar.Event) []string {
	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
	}
	return ids
}

func TestNewProvider_Validation(t *testing.T) {
	_, err := NewProvider(Options{Packages: packages.NewFSManager(nil), Permissions: staticChecker(true)})
	assert.Error(t, err)
	_, err = NewProvider(Options{Resolver: nilResolver{}, Permissions: staticChecker(true)})
	assert.Error(t, err)
	_, err = NewProvider(Options{Resolver: nilResolver{}, Packages: packages.NewFSManager(nil)})
	assert.Error(t, err)
}

func TestProvider_Search(t *testing.T) {
	tests := []struct {
		name    string
		query   calendar.Query
		wantIDs []string
	}{
		{
			name:    "everything",
			query:   calendar.Query{},
			wantIDs: []string{"1", "2", "3", "4", "9", "10"},
		},
		{
			name:    "inclusive range",
			query:   calendar.Query{Start: ptr(int64(100)), End: ptr(int64(200))},
			wantIDs: []string{"1", "2", "3"},
		},
		{
			name:    "open ended start",
			query:   calendar.Query{Start: ptr(int64(250))},
			wantIDs: []string{"4", "9", "10"},
		},
		{
			name:    "excluded lists",
			query:   calendar.Query{ExcludedCalendars: []string{"1", "2"}},
			wantIDs: []string{"3", "4", "9"},
		},
		{
			name:    "excluded ids that are not numeric are ignored",
			query:   calendar.Query{ExcludedCalendars: []string{"work", "3"}},
			wantIDs: []string{"1", "2", "3", "4", "10"},
		},
		{
			name:    "free text",
			query:   calendar.Query{Text: ptr("milk")},
			wantIDs: []string{"1"},
		},
		{
			name:    "free text is sanitized",
			query:   calendar.Query{Text: ptr("O'Brien%")},
			wantIDs: []string{"2"},
		},
		{
			name: "all criteria",
			query: calendar.Query{
				Text:              ptr("a"),
				Start:             ptr(int64(100)),
				End:               ptr(int64(300)),
				ExcludedCalendars: []string{"3"},
			},
			wantIDs: []string{"2", "3", "4"},
		},
	}

	for _, bind := range []bool{true, false} {
		f := newFixture(t, bind, true)
		for _, tt := range tests {
			name := tt.name + "/literal"
			if bind {
				name = tt.name + "/bound"
			}
			t.Run(name, func(t *testing.T) {
				events, err := f.provider.Search(context.Background(), tt.query)
				require.NoError(t, err)
				assert.ElementsMatch(t, tt.wantIDs, eventIDs(events))
				for _, ev := range events {
					require.NotNil(t, ev.EndTime)
					assert.Positive(t, *ev.EndTime)
					assert.Nil(t, ev.StartTime)
				}
			})
		}
	}
}

func TestProvider_SearchMapsFields(t *testing.T) {
	f := newFixture(t, true, true)

	events, err := f.provider.Search(context.Background(), calendar.Query{})
	require.NoError(t, err)

	byID := map[string]calendar.Event{}
	for _, ev := range events {
		byID[ev.ID] = ev
	}

	assert.Equal(t, calendar.Event{
		ID:           "1",
		Title:        "Buy milk",
		Color:        ptr(255),
		CalendarName: "Work",
		URI:          "content://org.tasks/tasks/1",
		EndTime:      ptr(int64(100)),
		IncludeTime:  true,
	}, byID["1"])

	assert.Equal(t, "about the fence", byID["2"].Description)
	assert.Equal(t, "Home", byID["2"].CalendarName)
	assert.Nil(t, byID["2"].Color)

	assert.True(t, byID["3"].IsCompleted)
	assert.Empty(t, byID["3"].CalendarName)

	assert.Empty(t, byID["9"].CalendarName)
	assert.True(t, byID["10"].IncludeTime)
}

func TestProvider_SearchRecordsRows(t *testing.T) {
	f := newFixture(t, true, true)

	_, err := f.provider.Search(context.Background(), calendar.Query{})
	require.NoError(t, err)

	assert.Equal(t, 6, f.recorder.mapped[ResourceAgenda])
	assert.Equal(t, 3, f.recorder.dropped[ResourceAgenda], "missing title, missing due and zero due")
	assert.Equal(t, []queryRecord{{ResourceAgenda, OperationSearch, StatusSuccess}}, f.recorder.queries)
}

func TestProvider_Get(t *testing.T) {
	for _, bind := range []bool{true, false} {
		f := newFixture(t, bind, true)
		ctx := context.Background()

		ev, err := f.provider.Get(ctx, "2")
		require.NoError(t, err)
		require.NotNil(t, ev)
		assert.Equal(t, "Call OBrien", ev.Title)
		assert.Equal(t, "content://org.tasks/tasks/2", ev.URI)

		for _, id := range []string{"5", "6", "7", "8", "999"} {
			ev, err := f.provider.Get(ctx, id)
			require.NoError(t, err)
			assert.Nil(t, ev, "id %s", id)
		}
	}
}

func TestProvider_GetRoundTrip(t *testing.T) {
	f := newFixture(t, true, true)
	ctx := context.Background()

	events, err := f.provider.Search(ctx, calendar.Query{})
	require.NoError(t, err)
	for _, ev := range events {
		got, err := f.provider.Get(ctx, ev.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, ev, *got)

		byURI, err := f.provider.GetByURI(ctx, ev.URI)
		require.NoError(t, err)
		require.NotNil(t, byURI)
		assert.Equal(t, ev.ID, byURI.ID)
	}
}

func TestProvider_GetNonNumericID(t *testing.T) {
	resolver := &countingResolver{}
	p, err := NewProvider(Options{
		Resolver:    resolver,
		Packages:    packages.NewFSManager(nil),
		Permissions: staticChecker(true),
	})
	require.NoError(t, err)

	for _, id := range []string{"abc", "", "1.5", "1 OR 1=1"} {
		ev, err := p.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Nil(t, ev)
	}
	ev, err := p.GetByURI(context.Background(), "content://org.tasks/lists")
	require.NoError(t, err)
	assert.Nil(t, ev)

	assert.Zero(t, resolver.calls)
}

func TestProvider_GetUsesIDSelection(t *testing.T) {
	f := newFixture(t, true, true)
	resolver := &countingResolver{next: f.provider.resolver}
	f.provider.resolver = resolver

	_, err := f.provider.Get(context.Background(), "4")
	require.NoError(t, err)
	assert.Equal(t, 1, resolver.calls)
	assert.Equal(t, "_id = ?", resolver.last.Clause)
	assert.Equal(t, []any{int64(4)}, resolver.last.Args)
}

func TestProvider_CalendarLists(t *testing.T) {
	f := newFixture(t, true, true)

	lists, err := f.provider.CalendarLists(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []calendar.List{
		{ID: "1", Name: "Work", Color: 255, ContentTypes: []calendar.ListType{calendar.ListTypeTasks}},
		{ID: "2", Name: "Home", Color: 0, ContentTypes: []calendar.ListType{calendar.ListTypeTasks}},
	}, lists)
	assert.Equal(t, 1, f.recorder.dropped[ResourceLists])
}

func TestProvider_PermissionDenied(t *testing.T) {
	resolver := &countingResolver{}
	recorder := newFakeRecorder()
	p, err := NewProvider(Options{
		Resolver:    resolver,
		Packages:    packages.NewFSManager(nil),
		Permissions: staticChecker(false),
		Recorder:    recorder,
	})
	require.NoError(t, err)
	ctx := context.Background()

	events, err := p.Search(ctx, calendar.Query{Text: ptr("milk")})
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)

	ev, err := p.Get(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, ev)

	lists, err := p.CalendarLists(ctx)
	require.NoError(t, err)
	assert.NotNil(t, lists)
	assert.Empty(t, lists)

	assert.Zero(t, resolver.calls)
	assert.Equal(t, []queryRecord{
		{ResourceAgenda, OperationSearch, StatusDenied},
		{ResourceAgenda, OperationGet, StatusDenied},
		{ResourceLists, OperationLists, StatusDenied},
	}, recorder.queries)
}

func TestProvider_PermissionReadFromStore(t *testing.T) {
	dbPath := testutil.NewTasksDB(t, fixtureLists(), fixtureTasks())
	resolver, err := contentprovider.NewSQLiteResolver(contentprovider.SQLiteConfig{
		Authority: Authority, Path: dbPath, BindParameters: true, Resources: Resources(),
	})
	require.NoError(t, err)
	defer resolver.Close()

	store := permission.NewStore(filepath.Join(t.TempDir(), "grants.yaml"))
	p, err := NewProvider(Options{
		Resolver:    resolver,
		Packages:    packages.NewFSManager(map[string]string{Authority: dbPath}),
		Permissions: store,
	})
	require.NoError(t, err)
	ctx := context.Background()

	events, err := p.Search(ctx, calendar.Query{})
	require.NoError(t, err)
	assert.Empty(t, events)

	require.NoError(t, store.Grant(permission.ReadTasks))
	events, err = p.Search(ctx, calendar.Query{})
	require.NoError(t, err)
	assert.Len(t, events, 6)
}

func TestProvider_MissingDatabase(t *testing.T) {
	f := newFixtureForDB(t, filepath.Join(t.TempDir(), "absent.db"), true, true)
	ctx := context.Background()

	events, err := f.provider.Search(ctx, calendar.Query{})
	require.NoError(t, err)
	assert.Empty(t, events)

	ev, err := f.provider.Get(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, ev)

	lists, err := f.provider.CalendarLists(ctx)
	require.NoError(t, err)
	assert.Empty(t, lists)

	assert.Equal(t, StatusNotFound, f.recorder.queries[0].status)
}

func TestProvider_NilCursor(t *testing.T) {
	p, err := NewProvider(Options{
		Resolver:    nilResolver{},
		Packages:    packages.NewFSManager(nil),
		Permissions: staticChecker(true),
	})
	require.NoError(t, err)

	events, err := p.Search(context.Background(), calendar.Query{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestProvider_ResolverError(t *testing.T) {
	p, err := NewProvider(Options{
		Resolver:    errResolver{err: errors.New("database is locked")},
		Packages:    packages.NewFSManager(nil),
		Permissions: staticChecker(true),
	})
	require.NoError(t, err)

	_, err = p.Search(context.Background(), calendar.Query{})
	assert.ErrorContains(t, err, "database is locked")

	_, err = p.CalendarLists(context.Background())
	assert.ErrorContains(t, err, "database is locked")
}

func TestProvider_SchemaError(t *testing.T) {
	dbPath := testutil.NewTasksDB(t, nil, fixtureTasks())
	resolver, err := contentprovider.NewSQLiteResolver(contentprovider.SQLiteConfig{
		Authority:      Authority,
		Path:           dbPath,
		BindParameters: true,
		Resources:      map[string]string{ResourceAgenda: "SELECT _id, title, dueDate FROM tasks"},
	})
	require.NoError(t, err)
	defer resolver.Close()

	p, err := NewProvider(Options{
		Resolver:    &projectionStripper{next: resolver},
		Packages:    packages.NewFSManager(nil),
		Permissions: staticChecker(true),
	})
	require.NoError(t, err)

	_, err = p.Search(context.Background(), calendar.Query{})
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{ColListColor, ColListName, ColCompleted, ColNotes}, schemaErr.Missing)
}

// projectionStripper drops the projection so the resource's own columns come
// back, as a provider with an older schema would do.
type projectionStripper struct{ next contentprovider.Resolver }

func (r *projectionStripper) Query(ctx context.Context, uri string, _ []string, sel contentprovider.Selection) (contentprovider.Cursor, error) {
	return r.next.Query(ctx, uri, nil, sel)
}

func TestProvider_PluginState(t *testing.T) {
	dbPath := testutil.NewTasksDB(t, nil, nil)
	absent := filepath.Join(t.TempDir(), "absent.db")

	tests := []struct {
		name       string
		appPath    string
		granted    bool
		wantKind   plugin.StateKind
		wantAction *plugin.SetupAction
		wantMsg    string
	}{
		{
			name:       "app absent, permission granted",
			appPath:    absent,
			granted:    true,
			wantKind:   plugin.StateSetupRequired,
			wantAction: &plugin.SetupAction{Kind: plugin.ActionOpenURL, Target: DefaultWebsiteURL},
			wantMsg:    MessageNotInstalled,
		},
		{
			name:       "app absent, permission denied",
			appPath:    absent,
			granted:    false,
			wantKind:   plugin.StateSetupRequired,
			wantAction: &plugin.SetupAction{Kind: plugin.ActionOpenURL, Target: DefaultWebsiteURL},
			wantMsg:    MessageNotInstalled,
		},
		{
			name:       "app installed, permission denied",
			appPath:    dbPath,
			granted:    false,
			wantKind:   plugin.StateSetupRequired,
			wantAction: &plugin.SetupAction{Kind: plugin.ActionRunCommand, Target: DefaultRequestCommand},
			wantMsg:    MessagePermissionDenied,
		},
		{
			name:     "ready",
			appPath:  dbPath,
			granted:  true,
			wantKind: plugin.StateReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := newFakeRecorder()
			p, err := NewProvider(Options{
				Resolver:    &countingResolver{},
				Packages:    packages.NewFSManager(map[string]string{Authority: tt.appPath}),
				Permissions: staticChecker(tt.granted),
				Recorder:    recorder,
			})
			require.NoError(t, err)

			state := p.PluginState(context.Background())
			assert.Equal(t, tt.wantKind, state.Kind)
			assert.Equal(t, tt.wantAction, state.Action)
			assert.Equal(t, tt.wantMsg, state.Message)
			assert.Equal(t, []string{string(tt.wantKind)}, recorder.states)
		})
	}
}

func TestProvider_PluginStateCustomTargets(t *testing.T) {
	p, err := NewProvider(Options{
		Resolver:       &countingResolver{},
		Packages:       packages.NewFSManager(map[string]string{Authority: t.TempDir()}),
		Permissions:    staticChecker(false),
		RequestCommand: "/opt/taskplugin/bin/taskplugin request-permission",
	})
	require.NoError(t, err)

	state := p.PluginState(context.Background())
	require.NotNil(t, state.Action)
	assert.Equal(t, "/opt/taskplugin/bin/taskplugin request-permission", state.Action.Target)
}

func TestProvider_QueryConfig(t *testing.T) {
	f := newFixture(t, true, true)
	assert.Equal(t, plugin.StoreReference, f.provider.QueryConfig().StorageStrategy)
}
