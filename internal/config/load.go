package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TASKPLUGIN_"

// SearchPaths returns the files Load tries, in order, when no path is given.
func SearchPaths() []string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		dir, _ = os.UserConfigDir()
	}
	paths := []string{"taskplugin.yaml", "taskplugin.toml"}
	if dir != "" {
		paths = append(paths,
			filepath.Join(dir, appName, "config.yaml"),
			filepath.Join(dir, appName, "config.toml"),
		)
	}
	return paths
}

// Load reads the configuration at path, or the first existing file from
// SearchPaths when path is empty. Defaults apply to every field the file
// leaves out, environment overrides are applied last, and the result is
// validated. With no path and no file found, Load returns the defaults.
//
// The file format is chosen by extension: .yaml/.yml or .toml.
func Load(path string) (*Config, error) {
	if path == "" {
		path = findConfig(SearchPaths())
	}

	cfg := Default()
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
		cfg.source = path
	}

	ApplyDefaults(cfg)
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfig(paths []string) string {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("failed to parse configuration file %q: unknown key %q", path, undecoded[0].String())
		}
	default:
		return fmt.Errorf("unsupported configuration file extension %q (want .yaml, .yml or .toml)", filepath.Ext(path))
	}
	return nil
}

// applyEnvOverrides applies TASKPLUGIN_SECTION_FIELD environment variables.
// Values that fail to parse are ignored.
func applyEnvOverrides(cfg *Config) {
	envString("TASKS_APP_PACKAGE", &cfg.TasksApp.Package)
	envString("TASKS_APP_DATABASE_PATH", &cfg.TasksApp.DatabasePath)
	envString("TASKS_APP_WEBSITE_URL", &cfg.TasksApp.WebsiteURL)

	envString("PROVIDER_DRIVER", &cfg.Provider.Driver)
	envDuration("PROVIDER_BUSY_TIMEOUT", &cfg.Provider.BusyTimeout)
	envBool("PROVIDER_BIND_PARAMETERS", &cfg.Provider.BindParameters)

	envString("PERMISSION_GRANTS_FILE", &cfg.Permission.GrantsFile)
	envString("PERMISSION_REQUEST_COMMAND", &cfg.Permission.RequestCommand)

	envString("SERVER_TRANSPORT", &cfg.Server.Transport)
	envString("SERVER_HTTP_ADDR", &cfg.Server.HTTPAddr)
	envBool("SERVER_METRICS_ENABLED", &cfg.Server.MetricsEnabled)
	envString("SERVER_METRICS_ADDR", &cfg.Server.MetricsAddr)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	envString("LOGGING_LEVEL", &cfg.Logging.Level)
	envString("LOGGING_FORMAT", &cfg.Logging.Format)
}

func envString(key string, dst *string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

// Source returns the file the configuration was loaded from, or "" when
// only defaults and environment overrides apply.
func (c *Config) Source() string {
	return c.source
}
