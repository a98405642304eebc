package mapping

import "fmt"

// CorruptError means the mapping file exists but cannot be parsed. Fatal:
// silently reinitializing it would orphan existing clones.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("mapping file %s is corrupt: %v (refusing to reset; fix or remove it manually)", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// TraversalError means a remote's derived clone directory would escape the
// managed mounts root.
type TraversalError struct {
	Remote  string
	Derived string
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("remote '%s' derives unsafe clone directory '%s'", e.Remote, e.Derived)
}
