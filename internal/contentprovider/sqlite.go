package contentprovider

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	// SQLite drivers. "sqlite" is modernc.org/sqlite, "sqlite3" is mattn/go-sqlite3.
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverModernc = "sqlite"
	DriverMattn   = "sqlite3"
)

// DefaultBusyTimeout is how long a query waits on a locked database.
const DefaultBusyTimeout = 5 * time.Second

// SQLiteConfig configures a SQLiteResolver.
type SQLiteConfig struct {
	// Authority is the content URI authority served by the resolver.
	Authority string

	// Path is the SQLite database file. It is opened read-only.
	Path string

	// Driver is the database/sql driver name, DriverModernc or DriverMattn.
	// Defaults to DriverModernc.
	Driver string

	// BusyTimeout defaults to DefaultBusyTimeout.
	BusyTimeout time.Duration

	// BindParameters controls whether selection arguments are accepted.
	// When false, any query carrying arguments fails with ErrBindingUnsupported.
	BindParameters bool

	// Resources maps URI paths to the SQL query producing the resource's rows.
	Resources map[string]string
}

// SQLiteResolver serves content URIs from a SQLite database.
// It is safe for concurrent use.
type SQLiteResolver struct {
	cfg SQLiteConfig

	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteResolver creates a resolver for cfg. The database is opened lazily
// on the first query, so the file doesn't have to exist yet.
func NewSQLiteResolver(cfg SQLiteConfig) (*SQLiteResolver, error) {
	if cfg.Authority == "" {
		return nil, errors.New("authority is required")
	}
	if cfg.Path == "" {
		return nil, errors.New("database path is required")
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverModernc
	}
	if cfg.Driver != DriverModernc && cfg.Driver != DriverMattn {
		return nil, fmt.Errorf("unsupported sqlite driver %q (want %q or %q)", cfg.Driver, DriverModernc, DriverMattn)
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = DefaultBusyTimeout
	}
	if len(cfg.Resources) == 0 {
		return nil, errors.New("at least one resource is required")
	}
	return &SQLiteResolver{cfg: cfg}, nil
}

// SupportsBinding implements Binder.
func (r *SQLiteResolver) SupportsBinding() bool {
	return r.cfg.BindParameters
}

// Authority returns the content URI authority served by r.
func (r *SQLiteResolver) Authority() string {
	return r.cfg.Authority
}

// Query implements Resolver.
func (r *SQLiteResolver) Query(ctx context.Context, uri string, projection []string, selection Selection) (Cursor, error) {
	authority, path, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if authority != r.cfg.Authority {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, authority)
	}
	source, ok := r.cfg.Resources[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownURI, uri)
	}
	if len(selection.Args) > 0 && !r.cfg.BindParameters {
		return nil, ErrBindingUnsupported
	}

	query, err := buildQuery(source, projection, selection)
	if err != nil {
		return nil, err
	}

	db, err := r.open()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, selection.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", uri, err)
	}
	return rows, nil
}

// Close releases the underlying database handle.
func (r *SQLiteResolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *SQLiteResolver) open() (*sql.DB, error) {
	// The owning application may not be installed, or may not have created
	// its database yet.
	if _, err := os.Stat(r.cfg.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, r.cfg.Path)
		}
		return nil, fmt.Errorf("failed to stat database: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db != nil {
		return r.db, nil
	}

	db, err := sql.Open(r.cfg.Driver, readOnlyDSN(r.cfg.Driver, r.cfg.Path, r.cfg.BusyTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(time.Minute)
	r.db = db
	return db, nil
}

func readOnlyDSN(driver, path string, busyTimeout time.Duration) string {
	ms := busyTimeout.Milliseconds()
	u := url.URL{Scheme: "file", Path: path}
	switch driver {
	case DriverMattn:
		u.RawQuery = fmt.Sprintf("mode=ro&_busy_timeout=%d", ms)
	default:
		u.RawQuery = fmt.Sprintf("mode=ro&_pragma=busy_timeout(%d)", ms)
	}
	return u.String()
}

func buildQuery(source string, projection []string, selection Selection) (string, error) {
	columns := "*"
	if len(projection) > 0 {
		quoted := make([]string, len(projection))
		for i, col := range projection {
			q, err := quoteIdent(col)
			if err != nil {
				return "", err
			}
			quoted[i] = q
		}
		columns = strings.Join(quoted, ", ")
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(columns)
	b.WriteString(" FROM (")
	b.WriteString(source)
	b.WriteString(")")
	if !selection.IsEmpty() {
		b.WriteString(" WHERE ")
		b.WriteString(selection.Clause)
	}
	return b.String(), nil
}

func quoteIdent(name string) (string, error) {
	if name == "" {
		return "", errors.New("empty column name in projection")
	}
	if strings.ContainsAny(name, "\"\x00") {
		return "", fmt.Errorf("invalid column name %q in projection", name)
	}
	return `"` + name + `"`, nil
}
