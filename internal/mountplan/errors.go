package mountplan

import "fmt"

// UnparsableRemoteError means a reference's remote cannot be split into
// org/repo, so its mount location cannot be derived. Fatal for the whole
// plan: a guessed location could collide silently.
type UnparsableRemoteError struct {
	Remote string
	Err    error
}

func (e *UnparsableRemoteError) Error() string {
	return fmt.Sprintf("cannot derive mount location from remote '%s': %v", e.Remote, e.Err)
}

func (e *UnparsableRemoteError) Unwrap() error { return e.Err }

// SubpathEscapeError means an intent's subpath resolved to a directory
// outside its backing clone. Mounting it would expose an arbitrary host
// path, so the plan is aborted wholesale.
type SubpathEscapeError struct {
	Space   Space
	Subpath string
}

func (e *SubpathEscapeError) Error() string {
	return fmt.Sprintf("subpath '%s' of %s escapes its repository", e.Subpath, e.Space)
}

// TargetConflictError means two plan entries resolved to the same target
// path. The plan is aborted wholesale; partial plans are never mounted.
type TargetConflictError struct {
	Target string
	First  Space
	Second Space
}

func (e *TargetConflictError) Error() string {
	return fmt.Sprintf("mount target conflict at '%s' between %s and %s", e.Target, e.First, e.Second)
}
