// Package mapping maintains the durable table from canonical remote identity
// to local clone path, shared across every repository the tool manages on a
// host. Entries are created lazily on first resolution and never deleted
// automatically.
package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/byterings/docspace/internal/lockfile"
	"github.com/byterings/docspace/internal/platform"
)

const (
	// HomeEnv overrides the mapping root, so tests and isolated
	// environments never touch the real per-user state.
	HomeEnv = "DOCSPACE_HOME"

	mappingFileName = "repos.json"
	mountsDirName   = "mounts"
	mappingVersion  = "1.0"
)

// Entry records where a remote's clone lives locally.
type Entry struct {
	LocalPath    string    `json:"local_path"`
	LastVerified time.Time `json:"last_verified"`
	// AutoManaged is false for clones the user placed explicitly.
	AutoManaged bool `json:"auto_managed"`
}

type mappingFile struct {
	Version  string           `json:"version"`
	Mappings map[string]Entry `json:"mappings"`
}

// Store is a handle to the on-disk mapping. It deliberately holds no cached
// state: every operation is an open-lock-read-mutate-write cycle, since
// concurrent invocations may mutate the file between calls.
type Store struct {
	home string
}

// Open returns a Store rooted at $DOCSPACE_HOME, or ~/.docspace by default.
func Open() (*Store, error) {
	if env := os.Getenv(HomeEnv); env != "" {
		expanded, err := platform.ExpandTilde(env)
		if err != nil {
			return nil, err
		}
		return &Store{home: expanded}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return &Store{home: filepath.Join(home, ".docspace")}, nil
}

// OpenAt returns a Store rooted at an explicit directory.
func OpenAt(home string) *Store {
	return &Store{home: home}
}

// Path returns the mapping file location.
func (s *Store) Path() string {
	return filepath.Join(s.home, mappingFileName)
}

// MountsRoot returns the managed root that auto-allocated clones live under.
func (s *Store) MountsRoot() string {
	return filepath.Join(s.home, mountsDirName)
}

// Resolve returns the local clone path for a remote, allocating and
// persisting a fresh path under the managed root on first sight. The whole
// read-merge-write is one critical section so concurrent invocations cannot
// lose each other's updates.
func (s *Store) Resolve(remote string) (string, error) {
	key, err := Canonicalize(remote)
	if err != nil {
		return "", err
	}

	var result string
	err = lockfile.WithLock(s.Path(), func() error {
		m, err := s.load()
		if err != nil {
			return err
		}
		if entry, ok := m.Mappings[key]; ok {
			result = entry.LocalPath
			return nil
		}

		path, err := s.allocate(remote)
		if err != nil {
			return err
		}
		m.Mappings[key] = Entry{
			LocalPath:    path,
			LastVerified: time.Now().UTC(),
			AutoManaged:  true,
		}
		result = path
		return s.save(m)
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

// Lookup returns the mapped path for a remote without allocating. Used by
// read-only commands, which must not mutate the mapping.
func (s *Store) Lookup(remote string) (string, bool, error) {
	key, err := Canonicalize(remote)
	if err != nil {
		return "", false, err
	}
	m, err := s.load()
	if err != nil {
		return "", false, err
	}
	entry, ok := m.Mappings[key]
	return entry.LocalPath, ok, nil
}

// SetManual records a user-chosen clone location for a remote. The path must
// already exist as a directory.
func (s *Store) SetManual(remote, path string) error {
	key, err := Canonicalize(remote)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("path does not exist: %s", abs)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", abs)
	}

	return lockfile.WithLock(s.Path(), func() error {
		m, err := s.load()
		if err != nil {
			return err
		}
		m.Mappings[key] = Entry{
			LocalPath:    abs,
			LastVerified: time.Now().UTC(),
			AutoManaged:  false,
		}
		return s.save(m)
	})
}

// Remove deletes a remote's mapping entry. The clone itself is left in
// place. Returns false if no entry existed.
func (s *Store) Remove(remote string) (bool, error) {
	key, err := Canonicalize(remote)
	if err != nil {
		return false, err
	}
	removed := false
	err = lockfile.WithLock(s.Path(), func() error {
		m, err := s.load()
		if err != nil {
			return err
		}
		if _, ok := m.Mappings[key]; !ok {
			return nil
		}
		delete(m.Mappings, key)
		removed = true
		return s.save(m)
	})
	return removed, err
}

// Touch refreshes a remote's last_verified timestamp after a successful sync.
func (s *Store) Touch(remote string) error {
	key, err := Canonicalize(remote)
	if err != nil {
		return err
	}
	return lockfile.WithLock(s.Path(), func() error {
		m, err := s.load()
		if err != nil {
			return err
		}
		entry, ok := m.Mappings[key]
		if !ok {
			return nil
		}
		entry.LastVerified = time.Now().UTC()
		m.Mappings[key] = entry
		return s.save(m)
	})
}

// All returns a copy of every mapping entry, keyed by canonical remote.
func (s *Store) All() (map[string]Entry, error) {
	m, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make(map[string]Entry, len(m.Mappings))
	for k, v := range m.Mappings {
		out[k] = v
	}
	return out, nil
}

// allocate derives a fresh clone path under the managed root, guarding
// against a remote whose derived name would escape it.
func (s *Store) allocate(remote string) (string, error) {
	name, err := DeriveCloneName(remote)
	if err != nil {
		return "", err
	}

	root := s.MountsRoot()
	path := filepath.Join(root, name)
	rel, err := filepath.Rel(root, path)
	if err != nil || rel != name || strings.HasPrefix(rel, "..") {
		return "", &TraversalError{Remote: remote, Derived: name}
	}
	return path, nil
}

func (s *Store) load() (*mappingFile, error) {
	raw, err := os.ReadFile(s.Path())
	if os.IsNotExist(err) {
		return &mappingFile{Version: mappingVersion, Mappings: map[string]Entry{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	var m mappingFile
	if err := json.Unmarshal(raw, &m); err != nil {
		// Never reset a mapping file we cannot read: that would orphan
		// every clone it records.
		return nil, &CorruptError{Path: s.Path(), Err: err}
	}
	if m.Mappings == nil {
		m.Mappings = map[string]Entry{}
	}
	return &m, nil
}

func (s *Store) save(m *mappingFile) error {
	if err := platform.MkdirSecure(s.home); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return platform.WriteFileAtomic(s.Path(), data)
}
