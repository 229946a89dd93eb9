package permission

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ReadTasks is the permission the Tasks app requires before it shares task data.
const ReadTasks = "org.tasks.permission.READ_TASKS"

// Checker reports whether a permission has been granted.
type Checker interface {
	Granted(name string) bool
}

// Grant describes a recorded permission grant.
type Grant struct {
	GrantedAt time.Time `yaml:"granted_at"`
}

type grantsFile struct {
	Grants map[string]Grant `yaml:"grants"`
}

// Store is a file-backed Checker. Writes are serialized and atomic.
type Store struct {
	path string
	now  func() time.Time

	mu sync.Mutex
}

// NewStore returns a store backed by the grants file at path.
// The file is created on the first Grant.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Path returns the grants file location.
func (s *Store) Path() string {
	return s.path
}

// Granted implements Checker. Any failure to read the grants file is treated
// as not granted.
func (s *Store) Granted(name string) bool {
	grants, err := s.Grants()
	if err != nil {
		return false
	}
	_, ok := grants[name]
	return ok
}

// Grants returns all recorded grants. A missing file yields an empty map.
func (s *Store) Grants() (map[string]Grant, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]Grant{}, nil
		}
		return nil, fmt.Errorf("failed to read grants file: %w", err)
	}

	var f grantsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse grants file %s: %w", s.path, err)
	}
	if f.Grants == nil {
		f.Grants = map[string]Grant{}
	}
	return f.Grants, nil
}

// Grant records name as granted. Granting twice keeps the first timestamp.
func (s *Store) Grant(name string) error {
	return s.update(func(grants map[string]Grant) {
		if _, ok := grants[name]; !ok {
			grants[name] = Grant{GrantedAt: s.now().UTC()}
		}
	})
}

// Revoke removes the grant for name, if any.
func (s *Store) Revoke(name string) error {
	return s.update(func(grants map[string]Grant) {
		delete(grants, name)
	})
}

func (s *Store) update(fn func(map[string]Grant)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	grants, err := s.Grants()
	if err != nil {
		// Start over rather than leave the user stuck with a corrupt file.
		grants = map[string]Grant{}
	}
	fn(grants)

	data, err := yaml.Marshal(grantsFile{Grants: grants})
	if err != nil {
		return fmt.Errorf("failed to encode grants: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create grants directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".grants-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp grants file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write grants: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write grants: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to save grants file: %w", err)
	}
	return nil
}
