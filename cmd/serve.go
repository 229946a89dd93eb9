package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/taskplugin/internal/config"
	"github.com/teemow/taskplugin/internal/instrumentation"
	"github.com/teemow/taskplugin/internal/resources"
	"github.com/teemow/taskplugin/internal/server"
	"github.com/teemow/taskplugin/internal/tasks"
	"github.com/teemow/taskplugin/internal/tools/tasks_tools"
)

// serveOptions holds serve flags that have no configuration file equivalent.
type serveOptions struct {
	disableStreaming bool
	rateLimit        int
	rateBurst        int
	trustProxy       bool
}

func newServeCmd() *cobra.Command {
	var (
		transport   string
		httpAddr    string
		metricsAddr string
		noMetrics   bool
		opts        serveOptions
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP (Model Context Protocol) server exposing the Tasks app.

Supports two transports:
  - stdio: Standard input/output (default, how a host launches the plugin)
  - streamable-http: Streamable HTTP transport with health and metrics endpoints

All tools are read-only.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("transport") {
				cfg.Server.Transport = transport
			}
			if cmd.Flags().Changed("http-addr") {
				cfg.Server.HTTPAddr = httpAddr
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Server.MetricsAddr = metricsAddr
			}
			if noMetrics {
				cfg.Server.MetricsEnabled = false
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			return runServe(cfg, logger, opts)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", config.TransportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", config.DefaultHTTPAddr, "HTTP server address (for streamable-http transport)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", config.DefaultMetricsAddr, "Metrics server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "Do not start the metrics server")
	cmd.Flags().BoolVar(&opts.disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().IntVar(&opts.rateLimit, "rate-limit", server.DefaultRateLimit, "Requests per second allowed per client IP on the MCP endpoint (0 disables rate limiting)")
	cmd.Flags().IntVar(&opts.rateBurst, "rate-burst", server.DefaultRateBurst, "Burst size of the per-client rate limit")
	cmd.Flags().BoolVar(&opts.trustProxy, "trust-proxy", false, "Use X-Forwarded-For to identify clients (only behind a trusted reverse proxy)")

	return cmd
}

func runServe(c *config.Config, l *slog.Logger, opts serveOptions) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stdio := c.Server.Transport == config.TransportStdio

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	instrProvider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := instrProvider.Shutdown(context.Background()); err != nil {
			l.Warn("error during instrumentation shutdown", "error", err)
		}
	}()

	var recorder tasks.Recorder
	if instrProvider.Enabled() {
		recorder = instrProvider.Metrics()
	}

	b, err := newBackend(c, l, recorder)
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()

	serverContext, err := server.NewServerContext(shutdownCtx, b.provider, l)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			l.Warn("error during server context shutdown", "error", err)
		}
	}()

	// Set metrics and audit logger on server context for tool instrumentation
	if instrProvider.Enabled() {
		serverContext.SetMetrics(instrProvider.Metrics())
		serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(l, instrConfig.AuditLogging))
	}

	// Start metrics server if enabled and not in stdio mode
	if !stdio && c.Server.MetricsEnabled && instrProvider.Enabled() {
		metricsServer, err := startMetricsServer(c.Server.MetricsAddr, instrProvider, l)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), c.Server.ShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				l.Warn("error during metrics server shutdown", "error", err)
			}
		}()
	}

	sessions := server.NewSessionTracker(instrProvider.Metrics(), l)

	// Note: mcp.Implementation has Title field but WithTitle() ServerOption not available in v0.43.0
	mcpSrv := mcpserver.NewMCPServer("taskplugin", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
		mcpserver.WithHooks(sessions.Hooks()),
	)

	if err := registerAll(mcpSrv, serverContext); err != nil {
		return err
	}

	state := b.provider.PluginState(shutdownCtx)
	l.Info("plugin state", "state", state.String())

	switch c.Server.Transport {
	case config.TransportStdio:
		return runStdioServer(mcpSrv)
	case config.TransportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, sessions, c, opts, instrProvider)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", c.Server.Transport)
	}
}

// startMetricsServer starts the metrics server and waits until it listens.
func startMetricsServer(addr string, provider *instrumentation.Provider, l *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
		Logger:                  l,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	// Wait for metrics server to be ready or fail
	select {
	case <-metricsReady:
		l.Info("metrics server started", "addr", metricsServer.Addr())
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAll registers all MCP tools and resources
func registerAll(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	registrations := []struct {
		name     string
		register func() error
	}{
		{
			name: "Tasks tools",
			register: func() error {
				return tasks_tools.RegisterTasksTools(mcpSrv, sc)
			},
		},
		{
			name: "Tasks resources",
			register: func() error {
				return resources.RegisterTaskResources(mcpSrv, sc)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}

func runStreamableHTTPServer(
	ctx context.Context,
	mcpSrv *mcpserver.MCPServer,
	sc *server.ServerContext,
	sessions *server.SessionTracker,
	c *config.Config,
	opts serveOptions,
	instrProvider *instrumentation.Provider,
) error {
	l := sc.Logger()

	healthChecker := server.NewHealthChecker(sc)
	healthChecker.SetSessionTracker(sessions)

	httpConfig := server.HTTPServerConfig{
		Addr:             c.Server.HTTPAddr,
		DisableStreaming: opts.disableStreaming,
		Health:           healthChecker,
		Logger:           l,
	}
	if opts.rateLimit > 0 {
		httpConfig.RateLimiter = server.NewRateLimiter(opts.rateLimit, opts.rateBurst, opts.trustProxy, l)
	}
	// Set up HTTP instrumentation for metrics
	if instrProvider.Enabled() {
		httpConfig.Metrics = instrProvider.Metrics()
	}

	httpServer, err := server.NewHTTPServer(mcpSrv, httpConfig)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil {
			serverDone <- err
		}
	}()

	l.Info("streamable HTTP server starting",
		"addr", c.Server.HTTPAddr,
		"endpoint", server.MCPEndpoint,
		"health", "/healthz, /readyz, /healthz/detailed")

	select {
	case <-ctx.Done():
		l.Info("shutdown signal received, stopping HTTP server")
		healthChecker.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		l.Info("HTTP server stopped normally")
	}

	l.Info("HTTP server gracefully stopped")
	return nil
}
