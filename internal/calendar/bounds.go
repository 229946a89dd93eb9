package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateLayout is the layout used for date-only bounds.
const dateLayout = "2006-01-02"

// ParseTimeBound parses a search bound given as epoch milliseconds, an RFC3339
// timestamp, or a date (interpreted at midnight in loc).
func ParseTimeBound(value string, loc *time.Location) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("time bound cannot be empty")
	}
	if loc == nil {
		loc = time.Local
	}

	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return ms, nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return Millis(t), nil
	}

	if t, err := time.ParseInLocation(dateLayout, value, loc); err == nil {
		return Millis(t), nil
	}

	return 0, fmt.Errorf("invalid time bound %q: expected epoch milliseconds, RFC3339 or YYYY-MM-DD", value)
}

// ParseOptionalTimeBound is like ParseTimeBound but returns nil for an empty value.
func ParseOptionalTimeBound(value string, loc *time.Location) (*int64, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	ms, err := ParseTimeBound(value, loc)
	if err != nil {
		return nil, err
	}
	return &ms, nil
}
