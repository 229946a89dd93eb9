package tasks

import (
	"strconv"
	"strings"

	"github.com/teemow/taskplugin/internal/calendar"
	"github.com/teemow/taskplugin/internal/contentprovider"
)

// Sanitize strips apostrophes and percent signs from free text before it is
// matched against task titles.
func Sanitize(text string) string {
	return strings.NewReplacer("'", "", "%", "").Replace(text)
}

// selectionBuilder accumulates AND-joined clauses. With bind set, values are
// passed as arguments; otherwise they are rendered into the clause.
type selectionBuilder struct {
	bind    bool
	clauses []string
	args    []any
}

func (b *selectionBuilder) int64Clause(column, op string, v int64) {
	if b.bind {
		b.clauses = append(b.clauses, column+" "+op+" ?")
		b.args = append(b.args, v)
		return
	}
	b.clauses = append(b.clauses, column+" "+op+" "+strconv.FormatInt(v, 10))
}

// notIn excludes rows whose column holds one of values. Rows with a NULL
// column are kept: they belong to none of the excluded values.
func (b *selectionBuilder) notIn(column string, values []int64) {
	if len(values) == 0 {
		return
	}
	items := make([]string, len(values))
	for i, v := range values {
		if b.bind {
			items[i] = "?"
			b.args = append(b.args, v)
		} else {
			items[i] = strconv.FormatInt(v, 10)
		}
	}
	b.clauses = append(b.clauses, "("+column+" IS NULL OR "+column+" NOT IN ("+strings.Join(items, ", ")+"))")
}

// contains matches rows whose column contains text. text must already be
// sanitized: the literal rendering relies on it holding no quote.
func (b *selectionBuilder) contains(column, text string) {
	if b.bind {
		b.clauses = append(b.clauses, column+" LIKE '%' || ? || '%'")
		b.args = append(b.args, text)
		return
	}
	b.clauses = append(b.clauses, column+" LIKE '%"+text+"%'")
}

func (b *selectionBuilder) selection() contentprovider.Selection {
	if len(b.clauses) == 0 {
		return contentprovider.Selection{}
	}
	return contentprovider.Selection{
		Clause: strings.Join(b.clauses, " AND "),
		Args:   b.args,
	}
}

// BuildSelection translates a search query into a selection over the agenda
// resource. Every present criterion adds one clause; an empty query selects
// everything.
//
// With bind false the values are inlined. That rendering is only meant for
// resolvers that cannot bind arguments.
func BuildSelection(q calendar.Query, bind bool) contentprovider.Selection {
	b := &selectionBuilder{bind: bind}

	if q.Start != nil {
		b.int64Clause(ColDueDate, ">=", *q.Start)
	}
	if q.End != nil {
		b.int64Clause(ColDueDate, "<=", *q.End)
	}
	b.notIn(ColListID, listIDs(q.ExcludedCalendars))
	if q.Text != nil {
		b.contains(ColTitle, Sanitize(*q.Text))
	}

	return b.selection()
}

// idSelection selects the agenda row with the given primary key.
func idSelection(id int64, bind bool) contentprovider.Selection {
	b := &selectionBuilder{bind: bind}
	b.int64Clause(ColID, "=", id)
	return b.selection()
}

// listIDs parses list ids, dropping any that are not integers since they can
// never match a list's numeric key.
func listIDs(ids []string) []int64 {
	var out []int64
	for _, id := range ids {
		n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// parseID parses a task id as produced in calendar.Event.ID.
func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
