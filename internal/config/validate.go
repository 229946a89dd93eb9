package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/teemow/taskplugin/internal/contentprovider"
	"github.com/teemow/taskplugin/internal/logging"
)

// FieldError is a validation error for a single configuration field.
type FieldError struct {
	// Field is the dotted path to the field, e.g. "server.transport".
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every FieldError found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Validate checks cfg and returns a ValidationError listing all problems.
func Validate(cfg *Config) error {
	var errs []FieldError
	add := func(field, format string, args ...any) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if cfg.TasksApp.Package == "" {
		add("tasks_app.package", "must not be empty")
	}
	if cfg.TasksApp.DatabasePath == "" {
		add("tasks_app.database_path", "must not be empty")
	}
	if u, err := url.Parse(cfg.TasksApp.WebsiteURL); err != nil || u.Scheme == "" || u.Host == "" {
		add("tasks_app.website_url", "must be an absolute URL, got %q", cfg.TasksApp.WebsiteURL)
	}

	switch cfg.Provider.Driver {
	case contentprovider.DriverModernc, contentprovider.DriverMattn:
	default:
		add("provider.driver", "must be %q or %q, got %q", contentprovider.DriverModernc, contentprovider.DriverMattn, cfg.Provider.Driver)
	}
	if cfg.Provider.BusyTimeout < 0 {
		add("provider.busy_timeout", "must not be negative")
	}

	if cfg.Permission.GrantsFile == "" {
		add("permission.grants_file", "must not be empty")
	}

	switch cfg.Server.Transport {
	case TransportStdio, TransportStreamableHTTP:
	default:
		add("server.transport", "must be %q or %q, got %q", TransportStdio, TransportStreamableHTTP, cfg.Server.Transport)
	}
	if cfg.Server.Transport == TransportStreamableHTTP && cfg.Server.HTTPAddr == "" {
		add("server.http_addr", "is required for the %s transport", TransportStreamableHTTP)
	}
	if cfg.Server.MetricsEnabled && cfg.Server.MetricsAddr == "" {
		add("server.metrics_addr", "is required when metrics are enabled")
	}
	if cfg.Server.ShutdownTimeout < 0 {
		add("server.shutdown_timeout", "must not be negative")
	}

	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		add("logging.level", "%v", err)
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		add("logging.format", "must be %q or %q, got %q", logging.FormatText, logging.FormatJSON, cfg.Logging.Format)
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
