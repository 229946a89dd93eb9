// Package packages answers whether another application is installed on the
// machine the plugin runs on.
package packages

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrNameNotFound is returned when the named package is not installed.
var ErrNameNotFound = errors.New("package name not found")

// Info describes an installed package.
type Info struct {
	Name string
	// Path is the location that proves the package is installed.
	Path        string
	LastUpdated time.Time
}

// Manager looks up installed packages.
type Manager interface {
	PackageInfo(name string) (*Info, error)
}

// IsInstalled reports whether m knows the named package. Any lookup failure,
// not only ErrNameNotFound, is reported as not installed.
func IsInstalled(m Manager, name string) bool {
	if m == nil {
		return false
	}
	info, err := m.PackageInfo(name)
	return err == nil && info != nil
}

// FSManager considers a package installed when a known data path for it
// exists on the local filesystem.
type FSManager struct {
	paths map[string]string
}

// NewFSManager returns a manager for the given package name to path mapping.
func NewFSManager(paths map[string]string) *FSManager {
	m := &FSManager{paths: make(map[string]string, len(paths))}
	for name, path := range paths {
		m.paths[name] = path
	}
	return m
}

// PackageInfo implements Manager.
func (m *FSManager) PackageInfo(name string) (*Info, error) {
	path, ok := m.paths[name]
	if !ok || path == "" {
		return nil, fmt.Errorf("%w: %s", ErrNameNotFound, name)
	}

	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNameNotFound, name)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return &Info{Name: name, Path: path, LastUpdated: fi.ModTime()}, nil
}
