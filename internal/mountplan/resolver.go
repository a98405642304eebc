package mountplan

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/byterings/docspace/internal/config"
	"github.com/byterings/docspace/internal/mapping"
)

// Entry is one resolved source→target binding of a mount plan.
type Entry struct {
	Space Space

	// TargetPath is relative to the mount root and pairwise distinct
	// across the plan.
	TargetPath string

	// ClonePath is the root of the backing repository's working tree.
	ClonePath string

	// SourcePath is the directory actually exposed at TargetPath:
	// ClonePath, offset by the intent's subpath if any.
	SourcePath string

	ReadOnly bool
	Sync     config.SyncStrategy
	Remote   string
	Subpath  string
}

// Plan is an ordered, conflict-checked list of mount entries.
type Plan struct {
	Entries []Entry
}

// Resolve maps every intent to a target and source path, allocating mapping
// entries for remotes seen for the first time. Any target collision or
// unparsable remote aborts the whole plan; partial plans are never returned.
func Resolve(ds *DesiredState, store *mapping.Store) (*Plan, error) {
	return resolve(ds, store, true)
}

// Peek resolves without mutating the mapping: remotes with no existing
// mapping entry get an empty ClonePath. Read-only commands use this.
func Peek(ds *DesiredState, store *mapping.Store) (*Plan, error) {
	return resolve(ds, store, false)
}

func resolve(ds *DesiredState, store *mapping.Store, allocate bool) (*Plan, error) {
	plan := &Plan{Entries: make([]Entry, 0, len(ds.Intents))}
	seen := make(map[string]Space, len(ds.Intents))

	for _, intent := range ds.Intents {
		target := intent.Space.RelativePath(ds.MountDirs)
		if prev, ok := seen[target]; ok {
			return nil, &TargetConflictError{Target: target, First: prev, Second: intent.Space}
		}
		seen[target] = intent.Space

		var clonePath string
		if allocate {
			p, err := store.Resolve(intent.Remote)
			if err != nil {
				return nil, err
			}
			clonePath = p
		} else {
			p, ok, err := store.Lookup(intent.Remote)
			if err != nil {
				return nil, err
			}
			if ok {
				clonePath = p
			}
		}

		source := clonePath
		if clonePath != "" && intent.Subpath != "" {
			source = filepath.Join(clonePath, filepath.FromSlash(path.Clean(intent.Subpath)))
			// Validation already rejects traversal; re-check the joined
			// result so no config path reaches the plan unconfined.
			rel, err := filepath.Rel(clonePath, source)
			if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				return nil, &SubpathEscapeError{Space: intent.Space, Subpath: intent.Subpath}
			}
		}

		// Read-only is decided here by the space kind alone, so the
		// invariant holds no matter what the config claimed.
		plan.Entries = append(plan.Entries, Entry{
			Space:      intent.Space,
			TargetPath: target,
			ClonePath:  clonePath,
			SourcePath: source,
			ReadOnly:   intent.Space.ReadOnly(),
			Sync:       intent.Sync,
			Remote:     intent.Remote,
			Subpath:    intent.Subpath,
		})
	}

	return plan, nil
}
