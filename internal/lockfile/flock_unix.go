//go:build unix

package lockfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// lock acquires an exclusive flock(2) lock, blocking until available.
// Critical sections are short (load-mutate-persist), so blocking is fine.
func lock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

func unlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
