package tasks

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/teemow/taskplugin/internal/calendar"
	"github.com/teemow/taskplugin/internal/contentprovider"
)

// minuteMillis is the granularity of date-only due timestamps.
const minuteMillis = 60_000

// SchemaError is returned when a resource lacks columns the decoder needs.
type SchemaError struct {
	Resource string
	Missing  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("unexpected schema for %s: missing columns %s", e.Resource, strings.Join(e.Missing, ", "))
}

// scanTargets maps the cursor's columns to scan destinations. Columns the
// decoder doesn't use are scanned into a throwaway value.
func scanTargets(resource string, columns []string, want map[string]any) ([]any, error) {
	dest := make([]any, len(columns))
	found := make(map[string]bool, len(want))
	for i, col := range columns {
		if target, ok := want[col]; ok && !found[col] {
			dest[i] = target
			found[col] = true
			continue
		}
		dest[i] = new(any)
	}

	var missing []string
	for col := range want {
		if !found[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &SchemaError{Resource: resource, Missing: missing}
	}
	return dest, nil
}

// taskDecoder decodes agenda rows. It is built once per cursor and reuses
// its scan buffers for every row.
type taskDecoder struct {
	dest []any

	id        sql.NullInt64
	title     sql.NullString
	due       sql.NullInt64
	completed sql.NullInt64
	notes     sql.NullString
	listName  sql.NullString
	listColor sql.NullInt64
}

func newTaskDecoder(columns []string) (*taskDecoder, error) {
	d := &taskDecoder{}
	dest, err := scanTargets(ResourceAgenda, columns, map[string]any{
		ColID:        &d.id,
		ColTitle:     &d.title,
		ColDueDate:   &d.due,
		ColCompleted: &d.completed,
		ColNotes:     &d.notes,
		ColListName:  &d.listName,
		ColListColor: &d.listColor,
	})
	if err != nil {
		return nil, err
	}
	d.dest = dest
	return d, nil
}

// decode scans the current row. ok is false when the row lacks an id, a
// title or a positive due timestamp, or holds values of the wrong type.
func (d *taskDecoder) decode(c contentprovider.Cursor) (ev calendar.Event, ok bool) {
	// Scan only converts values; I/O failures surface through Next and Err.
	if err := c.Scan(d.dest...); err != nil {
		return calendar.Event{}, false
	}
	if !d.id.Valid || !d.title.Valid || !d.due.Valid || d.due.Int64 <= 0 {
		return calendar.Event{}, false
	}

	due := d.due.Int64
	ev = calendar.Event{
		ID:          strconv.FormatInt(d.id.Int64, 10),
		Title:       d.title.String,
		URI:         TaskURI(d.id.Int64),
		EndTime:     &due,
		IncludeTime: due%minuteMillis != 0,
		IsCompleted: d.completed.Valid && d.completed.Int64 != 0,
	}
	if d.notes.Valid {
		ev.Description = d.notes.String
	}
	if d.listName.Valid {
		ev.CalendarName = d.listName.String
	}
	if d.listColor.Valid {
		color := int(d.listColor.Int64)
		ev.Color = &color
	}
	return ev, true
}

// listDecoder decodes rows of the lists resource.
type listDecoder struct {
	dest []any

	id    sql.NullInt64
	name  sql.NullString
	color sql.NullInt64
}

func newListDecoder(columns []string) (*listDecoder, error) {
	d := &listDecoder{}
	dest, err := scanTargets(ResourceLists, columns, map[string]any{
		ColListID:    &d.id,
		ColListName:  &d.name,
		ColListColor: &d.color,
	})
	if err != nil {
		return nil, err
	}
	d.dest = dest
	return d, nil
}

// decode scans the current row. ok is false when the row lacks an id or a
// name, or holds values of the wrong type.
func (d *listDecoder) decode(c contentprovider.Cursor) (l calendar.List, ok bool) {
	if err := c.Scan(d.dest...); err != nil {
		return calendar.List{}, false
	}
	if !d.id.Valid || !d.name.Valid {
		return calendar.List{}, false
	}

	l = calendar.List{
		ID:           strconv.FormatInt(d.id.Int64, 10),
		Name:         d.name.String,
		ContentTypes: []calendar.ListType{calendar.ListTypeTasks},
	}
	if d.color.Valid {
		l.Color = int(d.color.Int64)
	}
	return l, true
}

// decodeStats counts the rows seen while draining a cursor.
type decodeStats struct {
	mapped  int
	dropped int
}

// readEvents drains and closes c.
func readEvents(c contentprovider.Cursor) (events []calendar.Event, stats decodeStats, err error) {
	defer c.Close()

	columns, err := c.Columns()
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read columns: %w", err)
	}
	d, err := newTaskDecoder(columns)
	if err != nil {
		return nil, stats, err
	}

	events = []calendar.Event{}
	for c.Next() {
		ev, ok := d.decode(c)
		if !ok {
			stats.dropped++
			continue
		}
		stats.mapped++
		events = append(events, ev)
	}
	if err := c.Err(); err != nil {
		return nil, stats, fmt.Errorf("failed to iterate task rows: %w", err)
	}
	return events, stats, nil
}

// readLists drains and closes c.
func readLists(c contentprovider.Cursor) (lists []calendar.List, stats decodeStats, err error) {
	defer c.Close()

	columns, err := c.Columns()
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read columns: %w", err)
	}
	d, err := newListDecoder(columns)
	if err != nil {
		return nil, stats, err
	}

	lists = []calendar.List{}
	for c.Next() {
		l, ok := d.decode(c)
		if !ok {
			stats.dropped++
			continue
		}
		stats.mapped++
		lists = append(lists, l)
	}
	if err := c.Err(); err != nil {
		return nil, stats, fmt.Errorf("failed to iterate list rows: %w", err)
	}
	return lists, stats, nil
}
