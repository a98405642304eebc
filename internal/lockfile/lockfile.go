// Package lockfile provides scoped advisory file locks for the cross-process
// shared state files (config, identity mapping). Locks are held only for a
// read-modify-write critical section, never across network I/O.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/byterings/docspace/internal/platform"
)

// WithLock runs fn while holding an exclusive advisory lock on a sibling
// ".lock" file next to path. The lock file is separate from the protected
// file because the protected file is replaced by atomic rename, which would
// detach a lock held on its inode.
func WithLock(path string, fn func() error) error {
	lockPath := path + ".lock"
	if err := platform.MkdirSecure(filepath.Dir(lockPath)); err != nil {
		return err
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("failed to open lock file %s: %w", lockPath, err)
	}
	defer f.Close()

	if err := lock(f); err != nil {
		return fmt.Errorf("failed to lock %s: %w", lockPath, err)
	}
	defer unlock(f)

	return fn()
}
