// Package export renders tasks as iCalendar data so they can be consumed by
// calendar tools.
package export

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"github.com/teemow/taskplugin/internal/calendar"
)

// DefaultProductID identifies the generator in the PRODID property.
const DefaultProductID = "-//teemow//taskplugin//EN"

// ErrNoTasks is returned by WriteICS when there is nothing to encode. An
// iCalendar object must contain at least one component.
var ErrNoTasks = errors.New("no tasks to export")

// VTODO status values.
const (
	statusNeedsAction = "NEEDS-ACTION"
	statusCompleted   = "COMPLETED"
)

// Options controls ICS rendering.
type Options struct {
	// ProductID is written as PRODID. Defaults to DefaultProductID.
	ProductID string

	// Location is used for date-only due dates. Defaults to time.Local.
	Location *time.Location

	// Now provides DTSTAMP. Defaults to time.Now.
	Now func() time.Time
}

// Calendar builds a VCALENDAR with one VTODO per event. Events without a
// due time are skipped.
func Calendar(events []calendar.Event, opts Options) (*ical.Calendar, int) {
	if opts.ProductID == "" {
		opts.ProductID = DefaultProductID
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	stamp := opts.Now().UTC()

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, opts.ProductID)

	n := 0
	for _, ev := range events {
		if ev.EndTime == nil {
			continue
		}
		cal.Children = append(cal.Children, todo(ev, stamp, opts.Location))
		n++
	}
	return cal, n
}

func todo(ev calendar.Event, stamp time.Time, loc *time.Location) *ical.Component {
	comp := ical.NewComponent(ical.CompToDo)
	comp.Props.SetText(ical.PropUID, ev.ID+"@"+uidDomain)
	comp.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	comp.Props.SetText(ical.PropSummary, ev.Title)
	if ev.Description != "" {
		comp.Props.SetText(ical.PropDescription, ev.Description)
	}
	if ev.CalendarName != "" {
		comp.Props.SetText(ical.PropCategories, ev.CalendarName)
	}
	if ev.URI != "" {
		comp.Props.SetText(ical.PropURL, ev.URI)
	}

	due := ev.End()
	if ev.IncludeTime {
		comp.Props.SetDateTime(ical.PropDue, due.UTC())
	} else {
		comp.Props.SetDate(ical.PropDue, due.In(loc))
	}

	if ev.IsCompleted {
		comp.Props.SetText(ical.PropStatus, statusCompleted)
	} else {
		comp.Props.SetText(ical.PropStatus, statusNeedsAction)
	}
	return comp
}

// uidDomain scopes generated UIDs to the Tasks app.
const uidDomain = "org.tasks"

// WriteICS encodes events to w as an iCalendar stream of VTODO components.
// It returns the number of tasks written.
func WriteICS(w io.Writer, events []calendar.Event, opts Options) (int, error) {
	cal, n := Calendar(events, opts)
	if n == 0 {
		return 0, ErrNoTasks
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return 0, fmt.Errorf("failed to encode calendar: %w", err)
	}
	return n, nil
}
