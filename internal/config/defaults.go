package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/teemow/taskplugin/internal/contentprovider"
)

// Default values for configuration fields.
const (
	// Tasks app defaults
	DefaultPackage    = "org.tasks"
	DefaultWebsiteURL = "https://tasks.org/"

	// Provider defaults
	DefaultDriver         = contentprovider.DriverModernc
	DefaultBusyTimeout    = 5 * time.Second
	DefaultBindParameters = true

	// Permission defaults
	DefaultRequestCommand = "taskplugin request-permission"

	// Server defaults
	DefaultTransport       = TransportStdio
	DefaultHTTPAddr        = ":8080"
	DefaultMetricsEnabled  = true
	DefaultMetricsAddr     = ":9090"
	DefaultShutdownTimeout = 30 * time.Second

	// Logging defaults
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "text"
)

// Transports accepted by ServerConfig.Transport.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// appName names the directories taskplugin keeps its own files in.
const appName = "taskplugin"

// Default returns a configuration populated with default values.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	// Zero is a meaningful value for booleans, so they are only defaulted here.
	cfg.Provider.BindParameters = DefaultBindParameters
	cfg.Server.MetricsEnabled = DefaultMetricsEnabled
	return cfg
}

// ApplyDefaults fills every unset field with its default value.
func ApplyDefaults(cfg *Config) {
	if cfg.TasksApp.Package == "" {
		cfg.TasksApp.Package = DefaultPackage
	}
	if cfg.TasksApp.DatabasePath == "" {
		cfg.TasksApp.DatabasePath = DefaultDatabasePath()
	}
	if cfg.TasksApp.WebsiteURL == "" {
		cfg.TasksApp.WebsiteURL = DefaultWebsiteURL
	}

	if cfg.Provider.Driver == "" {
		cfg.Provider.Driver = DefaultDriver
	}
	if cfg.Provider.BusyTimeout == 0 {
		cfg.Provider.BusyTimeout = DefaultBusyTimeout
	}

	if cfg.Permission.GrantsFile == "" {
		cfg.Permission.GrantsFile = DefaultGrantsFile()
	}
	if cfg.Permission.RequestCommand == "" {
		cfg.Permission.RequestCommand = DefaultRequestCommand
	}

	if cfg.Server.Transport == "" {
		cfg.Server.Transport = DefaultTransport
	}
	if cfg.Server.HTTPAddr == "" {
		cfg.Server.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.Server.MetricsAddr == "" {
		cfg.Server.MetricsAddr = DefaultMetricsAddr
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}
}

// DefaultDatabasePath returns $XDG_DATA_HOME/org.tasks/database, falling
// back to ~/.local/share when XDG_DATA_HOME is unset.
func DefaultDatabasePath() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(DefaultPackage, "database")
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, DefaultPackage, "database")
}

// DefaultGrantsFile returns grants.yaml inside the user config directory.
func DefaultGrantsFile() string {
	return filepath.Join(userConfigDir(), "grants.yaml")
}

// userConfigDir returns the taskplugin directory under the user config dir.
func userConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "." + appName
	}
	return filepath.Join(dir, appName)
}
