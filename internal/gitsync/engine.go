// Package gitsync reconciles each planned repository's on-disk state with
// the desired state: clone when absent, fetch and fast-forward when behind,
// refuse when local changes would be lost.
package gitsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/byterings/docspace/internal/config"
	"github.com/byterings/docspace/internal/mapping"
	"github.com/byterings/docspace/internal/mountplan"
)

// Outcome describes what syncing one plan entry did.
type Outcome int

const (
	// OutcomeUpToDate: nothing to do, clone already matches the remote.
	OutcomeUpToDate Outcome = iota
	// OutcomeFastForwarded: working tree advanced to the fetched commit.
	OutcomeFastForwarded
	// OutcomePushed: the clone held committed work ahead of the remote,
	// which has been pushed.
	OutcomePushed
	// OutcomeCloned: repository was absent and has been cloned.
	OutcomeCloned
	// OutcomeSkippedReadOnlyUnchanged: a reference left untouched by an
	// ordinary sync.
	OutcomeSkippedReadOnlyUnchanged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpToDate:
		return "up to date"
	case OutcomeFastForwarded:
		return "fast-forwarded"
	case OutcomePushed:
		return "pushed"
	case OutcomeCloned:
		return "cloned"
	case OutcomeSkippedReadOnlyUnchanged:
		return "skipped (read-only)"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result reports the per-entry outcome or error. A failed entry never blocks
// unrelated entries.
type Result struct {
	Entry   mountplan.Entry
	Outcome Outcome
	Err     error
}

// Options tune the engine.
type Options struct {
	// Timeout bounds each network operation.
	Timeout time.Duration
	// Workers caps concurrent entry syncs. Entries are independent after
	// planning, so this is lock-free parallelism.
	Workers int
	// SyncReferences makes references fetch-and-reset instead of being
	// skipped. Only explicit reference syncs set this.
	SyncReferences bool
}

const (
	defaultTimeout = 120 * time.Second
	defaultWorkers = 4

	retryBackoff      = 500 * time.Millisecond
	indexLockAttempts = 5
	indexLockWait     = 200 * time.Millisecond
)

// Engine syncs mount plan entries.
type Engine struct {
	store *mapping.Store
	opts  Options
}

// New creates an engine. Zero option fields get defaults.
func New(store *mapping.Store, opts Options) *Engine {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Engine{store: store, opts: opts}
}

// SyncPlan syncs every entry of the plan, in parallel, and returns one
// result per entry in plan order. The identity mapping is only written
// through Touch, which takes its own short-lived lock; no lock is held
// across network I/O.
func (e *Engine) SyncPlan(ctx context.Context, plan *mountplan.Plan) []Result {
	results := make([]Result, len(plan.Entries))
	sem := make(chan struct{}, e.opts.Workers)
	var wg sync.WaitGroup

	for i, entry := range plan.Entries {
		wg.Add(1)
		go func(i int, entry mountplan.Entry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outcome, err := e.SyncEntry(ctx, entry)
			results[i] = Result{Entry: entry, Outcome: outcome, Err: err}
		}(i, entry)
	}

	wg.Wait()
	return results
}

// SyncEntry runs the per-entry state machine.
func (e *Engine) SyncEntry(ctx context.Context, entry mountplan.Entry) (Outcome, error) {
	if entry.ClonePath == "" {
		return 0, fmt.Errorf("entry %s has no resolved clone path", entry.Space)
	}
	tr := ForRemote(entry.Remote)

	if !IsRepo(entry.ClonePath) {
		if err := e.withNetRetry(ctx, func(opCtx context.Context) error {
			return tr.Clone(opCtx, entry.Remote, entry.ClonePath)
		}); err != nil {
			return 0, err
		}
		e.touch(entry.Remote)
		return OutcomeCloned, nil
	}

	switch entry.Sync {
	case config.SyncNone:
		if !e.opts.SyncReferences {
			return OutcomeSkippedReadOnlyUnchanged, nil
		}
		return e.fetchAndReset(ctx, tr, entry, true)
	case config.SyncManual:
		// Verified present above; never fetched automatically.
		return OutcomeUpToDate, nil
	case config.SyncAuto:
		return e.fetchAndReset(ctx, tr, entry, false)
	default:
		return 0, fmt.Errorf("entry %s has unknown sync strategy '%s'", entry.Space, entry.Sync)
	}
}

// fetchAndReset fetches origin and fast-forwards the working tree. The
// update itself is a single hard reset, so an interruption leaves the
// repository cleanly at either the old or the new commit.
func (e *Engine) fetchAndReset(ctx context.Context, tr Transport, entry mountplan.Entry, force bool) (Outcome, error) {
	if !force {
		dirty, err := isDirty(entry.ClonePath)
		if err != nil {
			return 0, err
		}
		if dirty {
			return 0, fmt.Errorf("%s: %w", entry.ClonePath, ErrDirtyWorkingTree)
		}
	}

	if err := e.withNetRetry(ctx, func(opCtx context.Context) error {
		return tr.Fetch(opCtx, entry.ClonePath)
	}); err != nil {
		return 0, err
	}

	branch, local, ok, err := headState(entry.ClonePath)
	if err != nil {
		return 0, err
	}
	if !ok {
		// Unborn HEAD; nothing to advance.
		return OutcomeUpToDate, nil
	}

	remote, ok, err := remoteHead(entry.ClonePath, branch)
	if err != nil {
		return 0, err
	}
	if !ok || remote == local {
		e.touch(entry.Remote)
		return OutcomeUpToDate, nil
	}

	if !force {
		ff, err := canFastForward(entry.ClonePath, local, remote)
		if err != nil {
			return 0, err
		}
		if !ff {
			// Local commits ahead of the remote are published, not
			// refused. Refusal is reserved for true divergence.
			ahead, err := canFastForward(entry.ClonePath, remote, local)
			if err != nil {
				return 0, err
			}
			if !ahead {
				return 0, fmt.Errorf("%s: %w", entry.ClonePath, ErrNonFastForward)
			}
			if err := e.withNetRetry(ctx, func(opCtx context.Context) error {
				return tr.Push(opCtx, entry.ClonePath, branch)
			}); err != nil {
				return 0, err
			}
			e.touch(entry.Remote)
			return OutcomePushed, nil
		}
	}

	if err := withIndexLockRetry(func() error {
		return hardReset(entry.ClonePath, remote)
	}); err != nil {
		return 0, err
	}

	e.touch(entry.Remote)
	return OutcomeFastForwarded, nil
}

// touch refreshes the mapping's last_verified stamp. The stamp is advisory,
// so a failed refresh never fails a sync that already succeeded.
func (e *Engine) touch(remote string) {
	_ = e.store.Touch(remote)
}

// withNetRetry runs a network operation under the engine timeout, retrying
// exactly once with backoff on a transient failure.
func (e *Engine) withNetRetry(ctx context.Context, op func(context.Context) error) error {
	run := func() error {
		opCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
		return op(opCtx)
	}

	err := run()
	var transient *TransientError
	if err == nil || !errors.As(err, &transient) {
		return err
	}
	if ctx.Err() != nil {
		return err
	}

	time.Sleep(retryBackoff)
	return run()
}

// withIndexLockRetry retries an operation that can fail because a concurrent
// invocation holds git's index lock on the same repository. That is a
// legitimate mid-sync state, not a fatal error, so wait briefly and retry a
// bounded number of times.
func withIndexLockRetry(op func() error) error {
	var err error
	for attempt := 0; attempt < indexLockAttempts; attempt++ {
		err = op()
		if err == nil || !isIndexLocked(err) {
			return err
		}
		time.Sleep(indexLockWait)
	}
	return err
}

func isIndexLocked(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "index.lock") ||
		strings.Contains(msg, "unable to create") && strings.Contains(msg, ".lock")
}
