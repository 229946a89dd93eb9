package cmd

import (
	"fmt"
	"log/slog"

	"github.com/teemow/taskplugin/internal/config"
	"github.com/teemow/taskplugin/internal/contentprovider"
	"github.com/teemow/taskplugin/internal/packages"
	"github.com/teemow/taskplugin/internal/permission"
	"github.com/teemow/taskplugin/internal/tasks"
)

// backend is a tasks Provider together with the resources it holds.
type backend struct {
	provider *tasks.Provider
	resolver *contentprovider.SQLiteResolver
	grants   *permission.Store
}

// Close releases the database handle.
func (b *backend) Close() error {
	return b.resolver.Close()
}

// newBackend wires a tasks Provider from configuration. recorder may be nil.
func newBackend(c *config.Config, l *slog.Logger, recorder tasks.Recorder) (*backend, error) {
	resolver, err := contentprovider.NewSQLiteResolver(contentprovider.SQLiteConfig{
		Authority:      tasks.Authority,
		Path:           c.TasksApp.DatabasePath,
		Driver:         c.Provider.Driver,
		BusyTimeout:    c.Provider.BusyTimeout,
		BindParameters: c.Provider.BindParameters,
		Resources:      tasks.Resources(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create content resolver: %w", err)
	}

	grants := permission.NewStore(c.Permission.GrantsFile)

	provider, err := tasks.NewProvider(tasks.Options{
		Resolver:       resolver,
		Packages:       packages.NewFSManager(map[string]string{c.TasksApp.Package: c.TasksApp.DatabasePath}),
		Permissions:    grants,
		WebsiteURL:     c.TasksApp.WebsiteURL,
		RequestCommand: c.Permission.RequestCommand,
		Logger:         l,
		Recorder:       recorder,
	})
	if err != nil {
		_ = resolver.Close()
		return nil, fmt.Errorf("failed to create tasks provider: %w", err)
	}

	return &backend{provider: provider, resolver: resolver, grants: grants}, nil
}
