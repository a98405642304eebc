package config

import "fmt"

// ParseError means the config file exists but is not valid JSON or does not
// match its declared schema. Fatal: the user must hand-fix the file; the tool
// must never overwrite it with a fresh default.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MigrationConflictError means classifying a v1 config would produce two
// context mounts with the same mount path. There is no safe deduplication
// strategy, so migration refuses and the user must resolve it.
type MigrationConflictError struct {
	MountPath string
}

func (e *MigrationConflictError) Error() string {
	return fmt.Sprintf("migration conflict: two v1 mounts would both become context mount '%s'", e.MountPath)
}
