// Package tasks exposes the Tasks app's data to the host's unified search.
//
// The package is a thin adapter over the content resources the Tasks app
// shares under the org.tasks authority:
//
//   - a query builder that turns a calendar.Query (time range, excluded
//     lists, free text) into a selection over the agenda resource,
//   - typed row decoders that map rows into calendar.Event and calendar.List
//     values, skipping rows that lack the fields the host needs,
//   - a gate that refuses to touch the resolver until the Tasks app is
//     installed and the read permission has been granted.
//
// # Example Usage
//
//	provider, err := tasks.NewProvider(tasks.Options{
//	    Resolver:    resolver,
//	    Packages:    packages.NewFSManager(map[string]string{tasks.Authority: dbPath}),
//	    Permissions: permission.NewStore(grantsPath),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if state := provider.PluginState(ctx); !state.IsReady() {
//	    fmt.Println(state.Message)
//	}
//
//	events, err := provider.Search(ctx, calendar.Query{Start: &from, End: &to})
//
// # Rows
//
// A task row is only returned when it has an id, a title and a positive due
// timestamp. The due timestamp becomes the event's end time. Tasks due at a
// whole minute are treated as date-only (IncludeTime is false), since the
// Tasks app stores date-only due dates with the seconds part zeroed and
// time-specific ones with a non-zero seconds offset.
package tasks
