// Package plugin defines how a search plugin describes itself to the launcher
// host: its query configuration and its current readiness state.
//
// The readiness state is never cached. Providers derive it on every call from
// the current installation and permission situation, and the host shows the
// SetupRequired message and action in its settings and search UI.
package plugin
