package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/byterings/docspace/internal/config"
	"github.com/byterings/docspace/internal/driver"
	"github.com/byterings/docspace/internal/gitsync"
	"github.com/byterings/docspace/internal/mapping"
	"github.com/byterings/docspace/internal/mountplan"
	"github.com/byterings/docspace/internal/platform"
	"github.com/byterings/docspace/internal/settings"
	"github.com/byterings/docspace/internal/ui"
)

// workingRepoRoot returns the repository root for the current directory,
// following a worktree to its primary tree so both operate on the same
// mount state.
func workingRepoRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	root, err := gitsync.FindRepoRoot(cwd)
	if err != nil {
		return "", err
	}
	if gitsync.IsWorktree(root) {
		return gitsync.PrimaryRepoRoot(root)
	}
	return root, nil
}

func loadSettings() (*settings.Settings, error) {
	store, err := mapping.Open()
	if err != nil {
		return nil, err
	}
	return settings.Load(filepath.Dir(store.Path()))
}

func engineOptions(s *settings.Settings, syncRefs bool) gitsync.Options {
	return gitsync.Options{
		Timeout:        time.Duration(s.NetworkTimeoutSeconds) * time.Second,
		Workers:        s.SyncWorkers,
		SyncReferences: syncRefs,
	}
}

// linkWorktreeIfNeeded runs the worktree check that precedes every mutating
// command. Returns true if the invocation was satisfied by linking, in which
// case resolution and sync are skipped entirely.
func linkWorktreeIfNeeded() (bool, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return false, err
	}
	root, err := gitsync.FindRepoRoot(cwd)
	if err != nil {
		return false, err
	}
	if !gitsync.IsWorktree(root) {
		return false, nil
	}

	outcome, err := gitsync.DetectAndLink(cwd)
	if err != nil {
		return false, err
	}
	if outcome == nil {
		return false, nil
	}
	if outcome.Created {
		ui.Success(fmt.Sprintf("Linked worktree mount state to primary repository at %s", outcome.Primary))
	} else {
		ui.Info(fmt.Sprintf("Worktree already shares mount state with %s", outcome.Primary))
	}
	return true, nil
}

// ensureMigrated brings the repository config to v2, reporting the backup
// location when a migration happened.
func ensureMigrated(repoRoot string) (*config.ConfigV2, error) {
	cfg, backup, err := config.EnsureV2(repoRoot)
	if err != nil {
		return nil, err
	}
	reportMigration(backup)
	return cfg, nil
}

func reportMigration(backup string) {
	if backup != "" {
		ui.Info(fmt.Sprintf("Migrated config to v2 (backup: %s)", backup))
	}
}

// reconcile runs resolve → sync → mount for the repository and reports
// per-entry outcomes. Failed entries do not block the rest; the returned
// error is non-nil if any entry failed.
func reconcile(ctx context.Context, repoRoot string, syncRefs bool, only func(mountplan.Entry) bool) error {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		return err
	}
	if cfg == nil {
		return fmt.Errorf("no repository configuration found; run 'docspace init' first")
	}

	ds, err := mountplan.Desired(cfg)
	if err != nil {
		return err
	}

	store, err := mapping.Open()
	if err != nil {
		return err
	}
	plan, err := mountplan.Resolve(ds, store)
	if err != nil {
		return err
	}

	syncPlan := plan
	if only != nil {
		filtered := &mountplan.Plan{}
		for _, e := range plan.Entries {
			if only(e) {
				filtered.Entries = append(filtered.Entries, e)
			}
		}
		syncPlan = filtered
	}
	if len(syncPlan.Entries) == 0 {
		ui.Info("No mounts to sync")
		return materialize(ctx, repoRoot, plan)
	}

	s, err := loadSettings()
	if err != nil {
		return err
	}
	engine := gitsync.New(store, engineOptions(s, syncRefs))

	fmt.Printf("Syncing %d mount(s)...\n", len(syncPlan.Entries))
	results := engine.SyncPlan(ctx, syncPlan)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			ui.Error(fmt.Sprintf("%s (%s): %v", r.Entry.Space, r.Entry.Remote, r.Err))
			continue
		}
		ui.Success(fmt.Sprintf("%s: %s", r.Entry.Space, r.Outcome))
	}

	if err := materialize(ctx, repoRoot, plan); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d mount(s) failed to sync", failed, len(results))
	}
	return nil
}

// remount refreshes the mounted tree from the current config without
// syncing any repository. Used after removals, where the remaining clones
// are already in whatever state the last sync left them.
func remount(ctx context.Context, repoRoot string) error {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		return err
	}
	if cfg == nil {
		return fmt.Errorf("no repository configuration found; run 'docspace init' first")
	}
	ds, err := mountplan.Desired(cfg)
	if err != nil {
		return err
	}
	store, err := mapping.Open()
	if err != nil {
		return err
	}
	plan, err := mountplan.Resolve(ds, store)
	if err != nil {
		return err
	}
	return materialize(ctx, repoRoot, plan)
}

// materialize hands the plan to the platform mount driver, if one is
// available on this host. Sync results are useful even without mounting, so
// a missing driver is a warning, not an error. Entries whose clone is not on
// disk (a failed or pending sync) are left out rather than failing the
// whole mount.
func materialize(ctx context.Context, repoRoot string, plan *mountplan.Plan) error {
	d, err := driver.NewMergerfs()
	if err != nil {
		ui.Warning(fmt.Sprintf("Skipping mount: %v", err))
		return nil
	}

	present := &mountplan.Plan{}
	for _, e := range plan.Entries {
		if _, err := os.Stat(e.SourcePath); err != nil {
			ui.Warning(fmt.Sprintf("Not mounting %s: %s is not available", e.Space, e.SourcePath))
			continue
		}
		present.Entries = append(present.Entries, e)
	}
	plan = present

	root := config.StateDirPath(repoRoot)
	mounted, err := d.Mounted(root)
	if err != nil {
		return err
	}
	if mounted {
		if err := d.Unmount(ctx, root); err != nil {
			return fmt.Errorf("failed to refresh existing mount: %w", err)
		}
	}
	if err := d.Mount(ctx, root, plan); err != nil {
		return err
	}
	ui.Success(fmt.Sprintf("Mounted %d entries under %s", len(plan.Entries), root))
	return nil
}

// ensureGitignoreEntry appends entry to the repository's .gitignore if it is
// not already listed.
func ensureGitignoreEntry(repoRoot, entry string) error {
	path := filepath.Join(repoRoot, ".gitignore")
	raw, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(line) == entry {
			return nil
		}
	}

	content := string(raw)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry + "\n"
	return platform.WriteFileAtomic(path, []byte(content))
}
