// Package contentprovider provides read access to data another application
// shares through content URIs.
//
// A content URI has the form content://<authority>/<path>, where the authority
// names the application that owns the data and the path names a logical
// resource (for example content://org.tasks/todoagenda). A Resolver runs a query
// against such a resource and returns a Cursor over the matching rows.
//
// # Selections
//
// Rows are filtered with a Selection: a boolean SQL-style expression over the
// resource's column names plus optional positional arguments bound to "?"
// placeholders. Resolvers that cannot bind arguments report it through the
// Binder interface; callers then have to render values into the clause
// themselves.
//
// # SQLite
//
// SQLiteResolver serves resources straight from an application's SQLite
// database, opened read-only. Each resource is a sub-query, so selections and
// projections are applied on the resource's column names, never on the
// underlying tables. Both the pure-Go modernc.org/sqlite driver ("sqlite") and
// the cgo github.com/mattn/go-sqlite3 driver ("sqlite3") are supported.
package contentprovider
