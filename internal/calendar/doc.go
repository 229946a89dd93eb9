// Package calendar defines the shared calendar model the launcher host uses for
// search results from calendar-like plugins.
//
// Plugins return Event values for matching items and List values describing the
// calendars (or task lists) a user may include or exclude from search. A Query
// carries the host's search request: an optional free-text filter, an optional
// time range in epoch milliseconds, and the calendars the user excluded.
//
// Example usage:
//
//	start := calendar.Millis(time.Now())
//	q := calendar.Query{
//	    Start:             &start,
//	    ExcludedCalendars: []string{"2"},
//	}
//	events, err := provider.Search(ctx, q)
//	if err != nil {
//	    log.Fatal(err)
//	}
package calendar
