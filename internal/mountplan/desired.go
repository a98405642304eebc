package mountplan

import (
	"github.com/byterings/docspace/internal/config"
	"github.com/byterings/docspace/internal/mapping"
)

// MountIntent is one version-erased mount declaration. The resolver consumes
// intents only; it never sees a raw Config.
type MountIntent struct {
	Space    Space
	Remote   string
	Subpath  string
	Sync     config.SyncStrategy
	ReadOnly bool
}

// DesiredState is the read-only projection of a Config, identical whether
// the on-disk document was v1 or v2. Projecting a v1 config goes through the
// pure migration function and never touches disk, so read-only commands work
// against v1 without forcing migration.
type DesiredState struct {
	MountDirs config.MountDirs
	Intents   []MountIntent
	WasV1     bool
}

// Desired builds the DesiredState for a loaded config.
func Desired(cfg *config.Config) (*DesiredState, error) {
	v2 := cfg.V2
	wasV1 := false
	if cfg.Version == config.VersionV1 {
		migrated, err := config.Migrate(cfg.V1)
		if err != nil {
			return nil, err
		}
		v2 = migrated
		wasV1 = true
	}

	ds := &DesiredState{
		MountDirs: v2.MountDirs,
		WasV1:     wasV1,
	}

	// Ordering: thoughts first, then context mounts and references in
	// config order. The plan preserves this.
	if tm := v2.ThoughtsMount; tm != nil {
		ds.Intents = append(ds.Intents, MountIntent{
			Space:    Thoughts(),
			Remote:   tm.Remote,
			Subpath:  tm.Subpath,
			Sync:     tm.Sync,
			ReadOnly: Thoughts().ReadOnly(),
		})
	}
	for _, cm := range v2.ContextMounts {
		space := Context(cm.MountPath)
		ds.Intents = append(ds.Intents, MountIntent{
			Space:    space,
			Remote:   cm.Remote,
			Subpath:  cm.Subpath,
			Sync:     cm.Sync,
			ReadOnly: space.ReadOnly(),
		})
	}
	for _, rm := range v2.References {
		org, repo, err := mapping.SplitOrgRepo(rm.Remote)
		if err != nil {
			return nil, &UnparsableRemoteError{Remote: rm.Remote, Err: err}
		}
		space := Reference(org, repo)
		ds.Intents = append(ds.Intents, MountIntent{
			Space:    space,
			Remote:   rm.Remote,
			Sync:     config.SyncNone,
			ReadOnly: space.ReadOnly(),
		})
	}

	return ds, nil
}
