package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/taskplugin/internal/config"
	"github.com/teemow/taskplugin/internal/logging"
)

// rootCmd represents the base command for the taskplugin application
var rootCmd = &cobra.Command{
	Use:   "taskplugin",
	Short: "Exposes the Tasks app to calendar and search hosts",
	Long: `taskplugin is a query plugin that reads tasks from the Tasks app
(org.tasks) and presents those with a due date as calendar events.

It can run as:
  - An MCP (Model Context Protocol) server for hosts and AI assistants (default)
  - A standalone CLI tool for searching and exporting tasks`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadGlobals(cmd)
	},
}

// version will be set by main
var version = "dev"

// Global flags and the state derived from them.
var (
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "taskplugin version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// loadGlobals loads the configuration and builds the process logger.
// Flags override the configuration file and environment.
func loadGlobals(cmd *cobra.Command) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		loaded.Logging.Level = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		loaded.Logging.Format = logFormat
	}

	// Logs go to stderr so the stdio transport keeps stdout to itself.
	l, err := logging.New(loaded.Logging.Level, loaded.Logging.Format, os.Stderr)
	if err != nil {
		return fmt.Errorf("invalid logging configuration: %w", err)
	}
	slog.SetDefault(l)

	cfg, logger = loaded, l
	if src := loaded.Source(); src != "" {
		logger.Debug("configuration loaded", "path", src)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML or TOML configuration file (default: search ./taskplugin.yaml, then $XDG_CONFIG_HOME/taskplugin/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newListsCmd())
	rootCmd.AddCommand(newStateCmd())
	rootCmd.AddCommand(newRequestPermissionCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
