package contentprovider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Scheme is the URI scheme of content URIs.
const Scheme = "content"

var (
	// ErrProviderNotFound is returned when no provider serves the URI's
	// authority, or the provider's data is not available.
	ErrProviderNotFound = errors.New("content provider not found")

	// ErrUnknownURI is returned when the provider has no resource at the URI's path.
	ErrUnknownURI = errors.New("unknown content URI")

	// ErrBindingUnsupported is returned when selection arguments are passed to
	// a resolver that cannot bind them.
	ErrBindingUnsupported = errors.New("selection arguments are not supported by this provider")
)

// Selection filters the rows of a query.
type Selection struct {
	// Clause is a boolean expression over the resource's columns.
	Clause string

	// Args are bound, in order, to the "?" placeholders in Clause.
	Args []any
}

// IsEmpty reports whether the selection matches all rows.
func (s Selection) IsEmpty() bool {
	return strings.TrimSpace(s.Clause) == ""
}

// Cursor iterates over the rows returned by a query. *sql.Rows implements it.
// A Cursor must be closed once the caller is done with it.
type Cursor interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Resolver queries resources addressed by content URIs.
type Resolver interface {
	// Query returns the rows of the resource at uri matching selection.
	// An empty projection returns all columns. Rows come in no particular order.
	Query(ctx context.Context, uri string, projection []string, selection Selection) (Cursor, error)
}

// Binder is implemented by resolvers that can report whether they bind
// selection arguments.
type Binder interface {
	SupportsBinding() bool
}

// SupportsBinding reports whether r binds selection arguments. Resolvers that
// don't implement Binder are assumed to support binding.
func SupportsBinding(r Resolver) bool {
	if b, ok := r.(Binder); ok {
		return b.SupportsBinding()
	}
	return true
}

// BuildURI returns the content URI for a resource path under authority.
func BuildURI(authority string, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return Scheme + "://" + authority + "/" + strings.Join(escaped, "/")
}

// ParseURI splits a content URI into its authority and path (without the
// leading slash).
func ParseURI(uri string) (authority, path string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("invalid content URI %q: %w", uri, err)
	}
	if u.Scheme != Scheme {
		return "", "", fmt.Errorf("invalid content URI %q: scheme must be %q", uri, Scheme)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("invalid content URI %q: missing authority", uri)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}
