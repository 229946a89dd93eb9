package config

import "time"

// Config is the complete taskplugin configuration.
type Config struct {
	TasksApp   TasksAppConfig   `yaml:"tasks_app" toml:"tasks_app"`
	Provider   ProviderConfig   `yaml:"provider" toml:"provider"`
	Permission PermissionConfig `yaml:"permission" toml:"permission"`
	Server     ServerConfig     `yaml:"server" toml:"server"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`

	source string
}

// TasksAppConfig describes where the Tasks app and its data live.
type TasksAppConfig struct {
	// Package is the package name, also used as the content authority.
	Package string `yaml:"package" toml:"package"`

	// DatabasePath is the Tasks app's SQLite database. The app counts as
	// installed when this file exists.
	DatabasePath string `yaml:"database_path" toml:"database_path"`

	// WebsiteURL is offered to the user when the app is not installed.
	WebsiteURL string `yaml:"website_url" toml:"website_url"`
}

// ProviderConfig tunes the content resolver.
type ProviderConfig struct {
	// Driver selects the SQLite driver: "sqlite" (pure Go) or "sqlite3" (cgo).
	Driver string `yaml:"driver" toml:"driver"`

	// BusyTimeout is how long a query waits on a locked database.
	BusyTimeout time.Duration `yaml:"busy_timeout" toml:"busy_timeout"`

	// BindParameters renders selections with bound arguments. When false,
	// sanitized values are inlined into the SQL text.
	BindParameters bool `yaml:"bind_parameters" toml:"bind_parameters"`
}

// PermissionConfig configures the grants store.
type PermissionConfig struct {
	// GrantsFile is the YAML file recording granted permissions.
	GrantsFile string `yaml:"grants_file" toml:"grants_file"`

	// RequestCommand is offered to the user when the permission is missing.
	RequestCommand string `yaml:"request_command" toml:"request_command"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	// Transport is "stdio" or "streamable-http".
	Transport string `yaml:"transport" toml:"transport"`

	// HTTPAddr is the listen address for the streamable-http transport.
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`

	// MetricsEnabled starts the dedicated metrics server.
	MetricsEnabled bool `yaml:"metrics_enabled" toml:"metrics_enabled"`

	// MetricsAddr is the listen address of the metrics server.
	MetricsAddr string `yaml:"metrics_addr" toml:"metrics_addr"`

	// ShutdownTimeout bounds graceful shutdown of the HTTP servers.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" toml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format" toml:"format"`
}
