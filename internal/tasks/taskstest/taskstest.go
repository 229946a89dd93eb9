// Package taskstest builds tasks Providers backed by fixture databases, for
// tests of packages that serve a Provider.
package taskstest

import (
	"path/filepath"
	"testing"

	"github.com/teemow/taskplugin/internal/contentprovider"
	"github.com/teemow/taskplugin/internal/packages"
	"github.com/teemow/taskplugin/internal/permission"
	"github.com/teemow/taskplugin/internal/tasks"
	"github.com/teemow/taskplugin/internal/testutil"
)

// Fixture describes the environment a test Provider runs in.
type Fixture struct {
	// Lists and Tasks populate the database. When both are nil the
	// DefaultLists and DefaultTasks are used.
	Lists []testutil.List
	Tasks []testutil.Task

	// Granted records the read permission in the grants file.
	Granted bool

	// NotInstalled points the package manager at a missing database.
	NotInstalled bool

	// Recorder receives provider measurements, may be nil.
	Recorder tasks.Recorder
}

// Result is a Provider together with the files backing it.
type Result struct {
	Provider *tasks.Provider
	Store    *permission.Store
	DBPath   string
}

// DefaultLists returns two named lists, "Work" (id 1) and "Home" (id 2).
func DefaultLists() []testutil.List {
	return []testutil.List{
		{ID: 1, UUID: "work", Name: testutil.Ptr("Work"), Color: testutil.Ptr(int64(-16776961))},
		{ID: 2, UUID: "home", Name: testutil.Ptr("Home")},
	}
}

// DefaultTasks returns three displayable tasks and one without a due date.
//
//	1 "Buy milk"    due 1700000000000 in Work
//	2 "Call Alice"  due 1700000123456 in Home, with notes
//	3 "Pay rent"    due 1700086400000, completed, no list
//	4 "Someday"     no due date
func DefaultTasks() []testutil.Task {
	return []testutil.Task{
		{ID: 1, Title: testutil.Ptr("Buy milk"), Due: testutil.Ptr(int64(1700000000000)), ListUUID: "work"},
		{ID: 2, Title: testutil.Ptr("Call Alice"), Due: testutil.Ptr(int64(1700000123456)), ListUUID: "home", Notes: testutil.Ptr("about the party")},
		{ID: 3, Title: testutil.Ptr("Pay rent"), Due: testutil.Ptr(int64(1700086400000)), Completed: testutil.Ptr(int64(1700000000000))},
		{ID: 4, Title: testutil.Ptr("Someday")},
	}
}

// New builds a Provider over a fresh fixture database.
func New(t testing.TB, f Fixture) Result {
	t.Helper()

	lists, rows := f.Lists, f.Tasks
	if lists == nil && rows == nil {
		lists, rows = DefaultLists(), DefaultTasks()
	}

	dbPath := testutil.NewTasksDB(t, lists, rows)
	installedPath := dbPath
	if f.NotInstalled {
		installedPath = filepath.Join(t.TempDir(), "missing.db")
	}

	store := permission.NewStore(filepath.Join(t.TempDir(), "grants.yaml"))
	if f.Granted {
		if err := store.Grant(permission.ReadTasks); err != nil {
			t.Fatalf("failed to grant permission: %v", err)
		}
	}

	resolver, err := contentprovider.NewSQLiteResolver(contentprovider.SQLiteConfig{
		Authority:      tasks.Authority,
		Path:           installedPath,
		BindParameters: true,
		Resources:      tasks.Resources(),
	})
	if err != nil {
		t.Fatalf("failed to create resolver: %v", err)
	}
	t.Cleanup(func() { _ = resolver.Close() })

	provider, err := tasks.NewProvider(tasks.Options{
		Resolver:    resolver,
		Packages:    packages.NewFSManager(map[string]string{tasks.Authority: installedPath}),
		Permissions: store,
		Recorder:    f.Recorder,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	return Result{Provider: provider, Store: store, DBPath: dbPath}
}
