package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MaxItems bounds the number of ids a single batch call may carry.
const MaxItems = 100

// Status is the outcome of one item in a batch.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusNotFound Status = "not_found"
	StatusError    Status = "error"
)

// Result represents the result of a single lookup in a batch
type Result[T any] struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
	Item   *T     `json:"item,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Summary represents the aggregated results of a batch lookup
type Summary[T any] struct {
	Total      int         `json:"total"`
	Successful int         `json:"successful"`
	NotFound   int         `json:"notFound"`
	Failed     int         `json:"failed"`
	Results    []Result[T] `json:"results"`
}

// ParseIDs parses a parameter that can be a single id, a comma-separated
// list, a JSON array encoded as a string, or an array of strings. Duplicates
// are dropped, keeping the first occurrence.
func ParseIDs(param any, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	var raw []string
	switch v := param.(type) {
	case string:
		v = strings.TrimSpace(v)
		if strings.HasPrefix(v, "[") {
			if err := json.Unmarshal([]byte(v), &raw); err != nil {
				return nil, fmt.Errorf("%s must be a JSON array of strings: %w", paramName, err)
			}
		} else {
			raw = strings.Split(v, ",")
		}
	case []string:
		raw = v
	case []any:
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			raw = append(raw, str)
		}
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}

	seen := make(map[string]bool, len(raw))
	ids := make([]string, 0, len(raw))
	for _, id := range raw {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", paramName)
	}
	if len(ids) > MaxItems {
		return nil, fmt.Errorf("%s has %d items, at most %d are allowed", paramName, len(ids), MaxItems)
	}
	return ids, nil
}

// Process looks up each id in order with fn. A nil item with a nil error
// counts as not found. Once ctx is done the remaining ids fail with its error.
func Process[T any](ctx context.Context, ids []string, fn func(ctx context.Context, id string) (*T, error)) Summary[T] {
	s := Summary[T]{
		Total:   len(ids),
		Results: make([]Result[T], 0, len(ids)),
	}

	for _, id := range ids {
		r := Result[T]{ID: id}
		var item *T
		err := ctx.Err()
		if err == nil {
			item, err = fn(ctx, id)
		}

		switch {
		case err != nil:
			r.Status = StatusError
			r.Error = err.Error()
			s.Failed++
		case item == nil:
			r.Status = StatusNotFound
			s.NotFound++
		default:
			r.Status = StatusSuccess
			r.Item = item
			s.Successful++
		}
		s.Results = append(s.Results, r)
	}

	return s
}
