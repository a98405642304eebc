package driver

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/byterings/docspace/internal/mountplan"
	"github.com/byterings/docspace/internal/platform"
)

const (
	mergerfsFSType = "fuse.mergerfs"
	procMounts     = "/proc/mounts"
)

// Mergerfs mounts each plan entry as a mergerfs branch under the mount root
// (Linux). Read-only entries are mounted with the ro option so writes fail
// at the filesystem level instead of silently diverging from upstream.
type Mergerfs struct{}

// NewMergerfs returns the mergerfs driver, or an error if the binary is not
// installed.
func NewMergerfs() (*Mergerfs, error) {
	if !platform.HasCommand("mergerfs") {
		return nil, fmt.Errorf("mergerfs not found in PATH (install it to enable mounting)")
	}
	return &Mergerfs{}, nil
}

func (d *Mergerfs) Mount(ctx context.Context, root string, plan *mountplan.Plan) error {
	if err := ValidatePlan(plan); err != nil {
		return err
	}

	for _, entry := range plan.Entries {
		target := filepath.Join(root, filepath.FromSlash(entry.TargetPath))
		if err := platform.MkdirSecure(target); err != nil {
			return fmt.Errorf("failed to create mount target %s: %w", target, err)
		}

		opts := []string{"cache.files=off", "category.create=ff"}
		if entry.ReadOnly {
			opts = append(opts, "ro")
		}

		cmd := exec.CommandContext(ctx, "mergerfs",
			"-o", strings.Join(opts, ","), entry.SourcePath, target)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("mergerfs mount of %s failed: %s: %w", entry.Space, strings.TrimSpace(string(out)), err)
		}
	}
	return nil
}

func (d *Mergerfs) Unmount(ctx context.Context, root string) error {
	targets, err := mountedTargets(root)
	if err != nil {
		return err
	}
	// Deepest first, in case of nested targets.
	for i := len(targets) - 1; i >= 0; i-- {
		cmd := exec.CommandContext(ctx, "fusermount", "-u", targets[i])
		if !platform.HasCommand("fusermount") {
			cmd = exec.CommandContext(ctx, "umount", targets[i])
		}
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("unmount of %s failed: %s: %w", targets[i], strings.TrimSpace(string(out)), err)
		}
	}
	return nil
}

func (d *Mergerfs) Mounted(root string) (bool, error) {
	targets, err := mountedTargets(root)
	if err != nil {
		return false, err
	}
	return len(targets) > 0, nil
}

// mountedTargets lists mergerfs mount points under root, sorted as they
// appear in the mount table.
func mountedTargets(root string) ([]string, error) {
	f, err := os.Open(procMounts)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	prefix := filepath.Clean(root) + string(filepath.Separator)
	var targets []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || fields[2] != mergerfsFSType {
			continue
		}
		if strings.HasPrefix(fields[1], prefix) {
			targets = append(targets, fields[1])
		}
	}
	return targets, scanner.Err()
}
