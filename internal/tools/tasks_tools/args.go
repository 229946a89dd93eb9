package tasks_tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/teemow/taskplugin/internal/calendar"
)

// parseTimeArg parses an optional time bound argument.
func parseTimeArg(name, value string, loc *time.Location) (*int64, error) {
	ms, err := calendar.ParseOptionalTimeBound(value, loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return ms, nil
}

// splitIDs accepts a comma-separated list of ids.
func splitIDs(value string) []string {
	var ids []string
	for _, id := range strings.Split(value, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
