package gitsync

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrDirtyWorkingTree blocks an automatic update that would discard
	// uncommitted local changes. The working tree is left untouched.
	ErrDirtyWorkingTree = errors.New("working tree has uncommitted changes")

	// ErrNonFastForward means local and remote history have diverged.
	// Never resolved automatically.
	ErrNonFastForward = errors.New("local branch has diverged from remote (non-fast-forward)")

	// ErrAuthFailed is an authentication or authorization failure against
	// the remote. Not retried.
	ErrAuthFailed = errors.New("authentication failed")
)

// TransientError wraps a network failure worth exactly one automatic retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient network error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// classify wraps raw transport errors into the engine's taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAuthFailed) || errors.Is(err, ErrNonFastForward) || errors.Is(err, ErrDirtyWorkingTree) {
		return err
	}

	var transient *TransientError
	if errors.As(err, &transient) {
		return err
	}

	if isAuthError(err) {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if isTransient(err) {
		return &TransientError{Err: err}
	}
	return err
}

func isAuthError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"authentication required",
		"authentication failed",
		"authorization failed",
		"permission denied (publickey)",
		"could not read username",
		"invalid credentials",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection reset",
		"connection refused",
		"connection timed out",
		"temporarily unavailable",
		"tls handshake timeout",
		"unexpected eof",
		"could not resolve host",
		"early eof",
		"502", "503", "504",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
