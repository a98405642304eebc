package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/byterings/docspace/internal/lockfile"
	"github.com/byterings/docspace/internal/platform"
)

// Migrate converts a v1 config into the v2 schema. It is a pure function:
// nothing is read from or written to disk. Every v1 mount is classified by
// three ordered rules:
//
//  1. sync == none            -> reference
//  2. mount_path starts with the reference directory name -> reference
//  3. otherwise               -> context mount
//
// The v1 rules field and personal mounts are dropped from the live config;
// callers are responsible for writing a backup first (see NeedsBackup).
func Migrate(v1 *ConfigV1) (*ConfigV2, error) {
	defaults := DefaultMountDirs()
	v2 := &ConfigV2{
		Version: VersionV2,
		MountDirs: MountDirs{
			Thoughts: defaults.Thoughts,
			// Keep the existing repository directory name so mounted paths
			// stay stable across the migration.
			Context:    v1.MountDirs.Repository,
			References: defaults.References,
		},
		ContextMounts: []ContextMount{},
		References:    []ReferenceMount{},
	}
	if v2.MountDirs.Context == "" {
		v2.MountDirs.Context = defaults.Context
	}

	refPrefix := defaults.References + "/"
	seenPaths := make(map[string]bool)
	seenRefs := make(map[string]bool)

	for _, req := range v1.Requires {
		isRef := req.Sync == SyncNone ||
			req.MountPath == defaults.References ||
			strings.HasPrefix(req.MountPath, refPrefix)

		if isRef {
			// Identical remotes collapse into one reference; the target path
			// is derived from the remote so this is always safe.
			if seenRefs[req.Remote] {
				continue
			}
			seenRefs[req.Remote] = true
			v2.References = append(v2.References, ReferenceMount{
				Remote:      req.Remote,
				Description: req.Description,
			})
			continue
		}

		if seenPaths[req.MountPath] {
			return nil, &MigrationConflictError{MountPath: req.MountPath}
		}
		seenPaths[req.MountPath] = true

		sync := req.Sync
		if sync == "" || sync == SyncNone {
			sync = SyncAuto
		}
		v2.ContextMounts = append(v2.ContextMounts, ContextMount{
			Remote:      req.Remote,
			Subpath:     req.Subpath,
			MountPath:   req.MountPath,
			Sync:        sync,
			Description: req.Description,
		})
	}

	return v2, nil
}

// NeedsBackup reports whether migrating this v1 config would drop content
// worth preserving: a non-empty requires list or non-empty rules.
func NeedsBackup(v1 *ConfigV1) bool {
	return len(v1.Requires) > 0 || len(v1.Rules) > 0
}

// BackupPath returns the timestamped sibling path a migration backup is
// written to.
func BackupPath(repoRoot string, now time.Time) string {
	dir := filepath.Dir(RepoConfigPath(repoRoot))
	return filepath.Join(dir, fmt.Sprintf("config.v1.bak-%s.json", now.Format("20060102-150405")))
}

// EnsureV2 loads the repository config, migrating a v1 document in place.
// The pre-migration document is backed up verbatim to a timestamped sibling
// file before the live config is overwritten, whenever it had meaningful
// content. Returns the live v2 config and the backup path ("" if none).
//
// Pure read paths must not call this; they project DesiredState from
// whichever version is on disk instead.
func EnsureV2(repoRoot string) (*ConfigV2, string, error) {
	return Mutate(repoRoot, nil)
}

// Mutate runs one read-modify-write cycle against the repository config
// under the config file lock: migrate a v1 document first (with backup),
// apply fn, persist. Nothing is written when the config was already v2 and
// fn is nil. The lock covers the whole cycle and is never held across
// network I/O.
func Mutate(repoRoot string, fn func(*ConfigV2) error) (*ConfigV2, string, error) {
	var (
		out        *ConfigV2
		backupPath string
	)
	err := lockfile.WithLock(RepoConfigPath(repoRoot), func() error {
		cfg, err := Load(repoRoot)
		if err != nil {
			return err
		}
		if cfg == nil {
			return fmt.Errorf("no repository configuration found at %s", RepoConfigPath(repoRoot))
		}

		v2 := cfg.V2
		migrated := false
		if cfg.Version == VersionV1 {
			v2, err = Migrate(cfg.V1)
			if err != nil {
				return err
			}
			if NeedsBackup(cfg.V1) {
				raw, err := os.ReadFile(RepoConfigPath(repoRoot))
				if err != nil {
					return fmt.Errorf("failed to read config for backup: %w", err)
				}
				backupPath = BackupPath(repoRoot, time.Now())
				if err := platform.WriteFileAtomic(backupPath, raw); err != nil {
					return fmt.Errorf("failed to write migration backup: %w", err)
				}
			}
			migrated = true
		}

		if fn != nil {
			if err := fn(v2); err != nil {
				return err
			}
		}
		if migrated || fn != nil {
			if err := Save(repoRoot, v2); err != nil {
				return err
			}
		}
		out = v2
		return nil
	})
	return out, backupPath, err
}
