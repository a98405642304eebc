package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/byterings/docspace/internal/config"
	"github.com/byterings/docspace/internal/gitsync"
	"github.com/byterings/docspace/internal/mapping"
	"github.com/byterings/docspace/internal/mountplan"
	"github.com/byterings/docspace/internal/ui"
	"github.com/spf13/cobra"
)

var mountCmd = &cobra.Command{
	Use:   "mount",
	Short: "Manage context mounts and repository mappings",
}

var (
	mountAddSubpath string
	mountAddSync    string
	mountAddDesc    string
)

var mountAddCmd = &cobra.Command{
	Use:   "add <remote> <name>",
	Short: "Add a context mount to the repository config",
	Long: `Register a team-shared repository as a context mount. The name becomes a
directory under the context mount dir. The clone is created and mounted
immediately.`,
	Args: cobra.ExactArgs(2),
	RunE: runMountAdd,
}

var mountRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a context mount from the repository config",
	Long: `Drop a context mount from the config and refresh the mounted tree. The
backing clone and its mapping entry are left in place; other repositories
may still use them. Use 'mount unmap' to drop the mapping too.`,
	Args: cobra.ExactArgs(1),
	RunE: runMountRemove,
}

var mountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every repository mapping on this machine",
	RunE:  runMountList,
}

var mountCloneCmd = &cobra.Command{
	Use:   "clone <remote> [path]",
	Short: "Clone a remote into the managed mounts directory",
	Long: `Clone a repository without touching any repository config. With no path
the clone goes under the shared mounts directory; with an explicit path the
clone lands there and the mapping records it as user-managed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runMountClone,
}

var mountUnmapCmd = &cobra.Command{
	Use:   "unmap <remote>",
	Short: "Remove a remote's mapping entry",
	Long: `Forget where a remote is cloned. The clone itself is never deleted; the
next resolve allocates a fresh path for the remote.`,
	Args: cobra.ExactArgs(1),
	RunE: runMountUnmap,
}

func init() {
	rootCmd.AddCommand(mountCmd)
	mountCmd.AddCommand(mountAddCmd)
	mountCmd.AddCommand(mountRemoveCmd)
	mountCmd.AddCommand(mountListCmd)
	mountCmd.AddCommand(mountCloneCmd)
	mountCmd.AddCommand(mountUnmapCmd)

	mountAddCmd.Flags().StringVar(&mountAddSubpath, "subpath", "", "Mount a subdirectory of the clone instead of its root")
	mountAddCmd.Flags().StringVar(&mountAddSync, "sync", string(config.SyncAuto), "Sync strategy: auto, manual or none")
	mountAddCmd.Flags().StringVar(&mountAddDesc, "description", "", "Human-readable note stored in the config")
}

func runMountAdd(cmd *cobra.Command, args []string) error {
	remote, name := args[0], args[1]

	if err := config.ValidateRemote(remote); err != nil {
		return err
	}
	strategy, err := config.ParseSyncStrategy(mountAddSync)
	if err != nil {
		return err
	}

	if _, err := linkWorktreeIfNeeded(); err != nil {
		return err
	}
	repoRoot, err := workingRepoRoot()
	if err != nil {
		return err
	}
	_, backup, err := config.Mutate(repoRoot, func(cfg *config.ConfigV2) error {
		return cfg.AddContextMount(config.ContextMount{
			Remote:      remote,
			Subpath:     mountAddSubpath,
			MountPath:   name,
			Sync:        strategy,
			Description: mountAddDesc,
		})
	})
	if err != nil {
		return err
	}
	reportMigration(backup)
	ui.Success(fmt.Sprintf("Added context mount '%s' -> %s", name, remote))

	space := mountplan.Context(name)
	return reconcile(cmd.Context(), repoRoot, false, func(e mountplan.Entry) bool {
		return e.Space == space
	})
}

func runMountRemove(cmd *cobra.Command, args []string) error {
	name := args[0]

	if _, err := linkWorktreeIfNeeded(); err != nil {
		return err
	}
	repoRoot, err := workingRepoRoot()
	if err != nil {
		return err
	}
	_, backup, err := config.Mutate(repoRoot, func(cfg *config.ConfigV2) error {
		if !cfg.RemoveContextMount(name) {
			return fmt.Errorf("no context mount named '%s'", name)
		}
		return nil
	})
	if err != nil {
		return err
	}
	reportMigration(backup)
	ui.Success(fmt.Sprintf("Removed context mount '%s'", name))

	return remount(cmd.Context(), repoRoot)
}

func runMountList(cmd *cobra.Command, args []string) error {
	store, err := mapping.Open()
	if err != nil {
		return err
	}
	entries, err := store.All()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		ui.Info("No repository mappings")
		return nil
	}

	fmt.Printf("Mappings in %s:\n\n", store.Path())
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REMOTE\tPATH\tMANAGED\tVERIFIED")
	for remote, e := range entries {
		managed := "manual"
		if e.AutoManaged {
			managed = "auto"
		}
		verified := "never"
		if !e.LastVerified.IsZero() {
			verified = e.LastVerified.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", remote, e.LocalPath, managed, verified)
	}
	return w.Flush()
}

func runMountClone(cmd *cobra.Command, args []string) error {
	remote := args[0]
	if err := config.ValidateRemote(remote); err != nil {
		return err
	}

	store, err := mapping.Open()
	if err != nil {
		return err
	}

	var path string
	explicit := len(args) == 2
	if explicit {
		path, err = filepath.Abs(args[1])
	} else {
		path, err = store.Resolve(remote)
	}
	if err != nil {
		return err
	}

	if !gitsync.IsRepo(path) {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		engine := gitsync.New(store, engineOptions(s, false))
		outcome, err := engine.SyncEntry(cmd.Context(), mountplan.Entry{
			Space:      mountplan.Context(filepath.Base(path)),
			ClonePath:  path,
			SourcePath: path,
			Sync:       config.SyncAuto,
			Remote:     remote,
		})
		if err != nil {
			return err
		}
		ui.Success(fmt.Sprintf("%s: %s", path, outcome))
	} else {
		ui.Info(fmt.Sprintf("Already cloned at %s", path))
	}

	if explicit {
		if err := store.SetManual(remote, path); err != nil {
			return err
		}
		ui.Success(fmt.Sprintf("Mapped %s -> %s (user-managed)", remote, path))
	}
	return nil
}

func runMountUnmap(cmd *cobra.Command, args []string) error {
	remote := args[0]

	store, err := mapping.Open()
	if err != nil {
		return err
	}
	removed, err := store.Remove(remote)
	if err != nil {
		return err
	}
	if !removed {
		ui.Info(fmt.Sprintf("No mapping for %s", remote))
		return nil
	}
	ui.Success(fmt.Sprintf("Unmapped %s (clone left on disk)", remote))
	return nil
}
