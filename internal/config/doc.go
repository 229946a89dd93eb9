// Package config loads the taskplugin configuration.
//
// Configuration is read from a YAML or TOML file, chosen by extension, on top
// of built-in defaults. Environment variables of the form
// TASKPLUGIN_SECTION_FIELD override file values. A missing file is not an
// error; the defaults describe a working local setup.
//
// Example YAML:
//
//	tasks_app:
//	  database_path: /var/lib/taskplugin/tasks.db
//	provider:
//	  driver: sqlite
//	  busy_timeout: 2s
//	server:
//	  transport: streamable-http
//	  http_addr: 127.0.0.1:8080
//	logging:
//	  level: debug
//	  format: json
package config
