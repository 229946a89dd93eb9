package calendar

import "time"

// ListType describes what kind of entries a calendar list contains.
type ListType string

const (
	// ListTypeCalendar marks a list of regular calendar events.
	ListTypeCalendar ListType = "calendar"

	// ListTypeTasks marks a list of tasks.
	ListTypeTasks ListType = "tasks"
)

// Event represents a single search result in the host's calendar model.
// Times are epoch milliseconds, matching what the host stores.
type Event struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Color        *int   `json:"color,omitempty"`
	CalendarName string `json:"calendarName,omitempty"`
	URI          string `json:"uri"`

	// StartTime is nil for entries that only have a deadline.
	StartTime *int64 `json:"startTime,omitempty"`
	EndTime   *int64 `json:"endTime,omitempty"`

	// IncludeTime reports whether EndTime carries a time of day or only a date.
	IncludeTime bool `json:"includeTime"`
	IsCompleted bool `json:"isCompleted"`
}

// Start returns the start time, or the zero time when the event has none.
func (e Event) Start() time.Time {
	if e.StartTime == nil {
		return time.Time{}
	}
	return time.UnixMilli(*e.StartTime)
}

// End returns the end time, or the zero time when the event has none.
func (e Event) End() time.Time {
	if e.EndTime == nil {
		return time.Time{}
	}
	return time.UnixMilli(*e.EndTime)
}

// List represents a calendar (or task list) the host can offer as a search filter.
type List struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Color        int        `json:"color"`
	ContentTypes []ListType `json:"contentTypes"`
}

// Query is a search request issued by the host.
type Query struct {
	// Text is an optional free-text filter.
	Text *string `json:"query,omitempty"`

	// Start and End bound the search range in epoch milliseconds (inclusive).
	Start *int64 `json:"start,omitempty"`
	End   *int64 `json:"end,omitempty"`

	// ExcludedCalendars lists List IDs whose entries must not be returned.
	ExcludedCalendars []string `json:"excludedCalendars,omitempty"`
}

// Millis converts t to epoch milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}
