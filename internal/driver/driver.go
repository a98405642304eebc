// Package driver defines the contract between the resolved mount plan and
// the platform-specific union-filesystem driver that materializes it.
package driver

import (
	"context"
	"fmt"

	"github.com/byterings/docspace/internal/mountplan"
)

// Driver materializes a mount plan under a mount root. Implementations must
// expose exactly the plan's target paths, enforce read-only entries at the
// filesystem level, and refuse to start on any duplicate target path.
type Driver interface {
	// Mount materializes the plan under root.
	Mount(ctx context.Context, root string, plan *mountplan.Plan) error
	// Unmount tears down whatever Mount created under root.
	Unmount(ctx context.Context, root string) error
	// Mounted reports whether root currently has an active mount.
	Mounted(root string) (bool, error)
}

// ValidatePlan re-checks plan invariants at the driver boundary:
// pairwise-distinct target paths, read-only references, and resolved
// sources.
func ValidatePlan(plan *mountplan.Plan) error {
	seen := make(map[string]mountplan.Space, len(plan.Entries))
	for _, entry := range plan.Entries {
		if prev, ok := seen[entry.TargetPath]; ok {
			return fmt.Errorf("refusing to mount: duplicate target '%s' (%s and %s)", entry.TargetPath, prev, entry.Space)
		}
		seen[entry.TargetPath] = entry.Space

		if entry.Space.Kind == mountplan.KindReference && !entry.ReadOnly {
			return fmt.Errorf("refusing to mount: reference %s is not marked read-only", entry.Space)
		}
		if entry.SourcePath == "" {
			return fmt.Errorf("refusing to mount: entry %s has no source path", entry.Space)
		}
	}
	return nil
}
