// Package testutil builds fixture databases shaped like the Tasks app's
// storage for use in tests.
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	// Pure-Go driver so fixtures build without cgo.
	_ "modernc.org/sqlite"
)

// Schema is the subset of the Tasks app schema read by the plugin.
const Schema = `
CREATE TABLE tasks (
	_id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT,
	importance INTEGER DEFAULT 2,
	dueDate INTEGER DEFAULT 0,
	completed INTEGER DEFAULT 0,
	deleted INTEGER DEFAULT 0,
	notes TEXT
);
CREATE TABLE caldav_lists (
	cdl_id INTEGER PRIMARY KEY AUTOINCREMENT,
	cdl_uuid TEXT,
	cdl_name TEXT,
	cdl_color INTEGER
);
CREATE TABLE caldav_tasks (
	cd_id INTEGER PRIMARY KEY AUTOINCREMENT,
	cd_task INTEGER,
	cd_calendar TEXT,
	cd_deleted INTEGER DEFAULT 0
);
`

// List is a caldav_lists fixture row. Nil fields are stored as NULL.
type List struct {
	ID    int64
	UUID  string
	Name  *string
	Color *int64
}

// Task is a tasks fixture row. Nil fields are stored as NULL.
// ListUUID, when set, links the task to a list through caldav_tasks.
type Task struct {
	ID        int64
	Title     *string
	Due       *int64
	Completed *int64
	Notes     *string
	Deleted   bool
	ListUUID  string
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func value[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// NewDB creates a SQLite database in a temp dir, runs ddl against it and
// returns its path. The file is removed when the test ends.
func NewDB(t testing.TB, ddl string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open fixture database: %v", err)
	}
	defer db.Close()
	if ddl != "" {
		if _, err := db.Exec(ddl); err != nil {
			t.Fatalf("failed to create fixture schema: %v", err)
		}
	}
	return path
}

// NewTasksDB creates a fixture database with the Tasks app schema and the
// given rows, and returns its path.
func NewTasksDB(t testing.TB, lists []List, tasks []Task) string {
	t.Helper()
	path := NewDB(t, Schema)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open fixture database: %v", err)
	}
	defer db.Close()

	for _, l := range lists {
		if _, err := db.Exec(
			`INSERT INTO caldav_lists (cdl_id, cdl_uuid, cdl_name, cdl_color) VALUES (?, ?, ?, ?)`,
			l.ID, l.UUID, value(l.Name), value(l.Color),
		); err != nil {
			t.Fatalf("failed to insert list %d: %v", l.ID, err)
		}
	}

	for _, task := range tasks {
		deleted := 0
		if task.Deleted {
			deleted = 1
		}
		if _, err := db.Exec(
			`INSERT INTO tasks (_id, title, dueDate, completed, deleted, notes) VALUES (?, ?, ?, ?, ?, ?)`,
			task.ID, value(task.Title), value(task.Due), value(task.Completed), deleted, value(task.Notes),
		); err != nil {
			t.Fatalf("failed to insert task %d: %v", task.ID, err)
		}
		if task.ListUUID != "" {
			if _, err := db.Exec(
				`INSERT INTO caldav_tasks (cd_task, cd_calendar) VALUES (?, ?)`,
				task.ID, task.ListUUID,
			); err != nil {
				t.Fatalf("failed to link task %d: %v", task.ID, err)
			}
		}
	}
	return path
}
