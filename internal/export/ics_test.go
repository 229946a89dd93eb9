package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/taskplugin/internal/calendar"
)

func ptr[T any](v T) *T { return &v }

var fixedNow = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }

func decode(t *testing.T, data []byte) *ical.Calendar {
	t.Helper()
	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	require.NoError(t, err)
	return cal
}

func TestWriteICS(t *testing.T) {
	timed := time.Date(2024, 5, 3, 14, 30, 15, 0, time.UTC)
	allDay := time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)

	events := []calendar.Event{
		{
			ID:           "1",
			Title:        "Call plumber",
			Description:  "ask about the boiler",
			CalendarName: "Home",
			URI:          "content://org.tasks/tasks/1",
			EndTime:      ptr(timed.UnixMilli()),
			IncludeTime:  true,
		},
		{
			ID:          "2",
			Title:       "Pay rent",
			URI:         "content://org.tasks/tasks/2",
			EndTime:     ptr(allDay.UnixMilli()),
			IncludeTime: false,
			IsCompleted: true,
		},
		{ID: "3", Title: "No due date"},
	}

	var buf bytes.Buffer
	n, err := WriteICS(&buf, events, Options{Location: time.UTC, Now: fixedNow})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cal := decode(t, buf.Bytes())
	prodID, err := cal.Props.Text(ical.PropProductID)
	require.NoError(t, err)
	assert.Equal(t, DefaultProductID, prodID)

	todos := cal.Children
	require.Len(t, todos, 2)
	for _, c := range todos {
		assert.Equal(t, ical.CompToDo, c.Name)
	}

	first := todos[0]
	uid, _ := first.Props.Text(ical.PropUID)
	assert.Equal(t, "1@org.tasks", uid)
	summary, _ := first.Props.Text(ical.PropSummary)
	assert.Equal(t, "Call plumber", summary)
	desc, _ := first.Props.Text(ical.PropDescription)
	assert.Equal(t, "ask about the boiler", desc)
	status, _ := first.Props.Text(ical.PropStatus)
	assert.Equal(t, "NEEDS-ACTION", status)
	due, err := first.Props.DateTime(ical.PropDue, time.UTC)
	require.NoError(t, err)
	assert.True(t, due.Equal(timed))

	second := todos[1]
	status, _ = second.Props.Text(ical.PropStatus)
	assert.Equal(t, "COMPLETED", status)
	dueProp := second.Props.Get(ical.PropDue)
	require.NotNil(t, dueProp)
	assert.Equal(t, ical.ValueDate, dueProp.ValueType())
	assert.Equal(t, "20240504", dueProp.Value)
	assert.Nil(t, second.Props.Get(ical.PropDescription))
}

func TestWriteICS_NoTasks(t *testing.T) {
	var buf bytes.Buffer

	n, err := WriteICS(&buf, nil, Options{})
	assert.ErrorIs(t, err, ErrNoTasks)
	assert.Zero(t, n)
	assert.Zero(t, buf.Len())

	_, err = WriteICS(&buf, []calendar.Event{{ID: "9", Title: "undated"}}, Options{})
	assert.ErrorIs(t, err, ErrNoTasks)
}

func TestCalendar_Defaults(t *testing.T) {
	cal, n := Calendar([]calendar.Event{{ID: "1", Title: "x", EndTime: ptr(int64(120000))}}, Options{ProductID: "-//test//EN"})
	assert.Equal(t, 1, n)

	prodID, err := cal.Props.Text(ical.PropProductID)
	require.NoError(t, err)
	assert.Equal(t, "-//test//EN", prodID)

	version, err := cal.Props.Text(ical.PropVersion)
	require.NoError(t, err)
	assert.Equal(t, "2.0", version)

	assert.NotNil(t, cal.Children[0].Props.Get(ical.PropDateTimeStamp))
}
