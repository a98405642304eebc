package cmd

import (
	"fmt"

	"github.com/byterings/docspace/internal/config"
	"github.com/byterings/docspace/internal/platform"
	"github.com/byterings/docspace/internal/ui"
	"github.com/spf13/cobra"
)

var (
	initForce    bool
	initThoughts string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize docspace for the current repository",
	Long: `Create the docspace configuration for the current git repository.

In a secondary worktree this links the mount state to the primary working
tree instead of mounting independently. A legacy v1 config is migrated to v2
with a timestamped backup.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Migrate a v1 config without prompting")
	initCmd.Flags().StringVar(&initThoughts, "thoughts", "", "Remote of the personal thoughts repository")
}

func runInit(cmd *cobra.Command, args []string) error {
	// Worktrees share the primary tree's mount state; nothing else to set up.
	linked, err := linkWorktreeIfNeeded()
	if err != nil {
		return err
	}
	if linked {
		return nil
	}

	repoRoot, err := workingRepoRoot()
	if err != nil {
		return err
	}

	if config.Exists(repoRoot) {
		cfg, err := config.Load(repoRoot)
		if err != nil {
			return err
		}
		if cfg.Version == config.VersionV1 {
			if !initForce {
				ok, err := ui.PromptConfirmation("Found a v1 config. Migrate to v2 now?")
				if err != nil {
					return err
				}
				if !ok {
					ui.Info("Leaving v1 config in place. Read commands still work; mutation requires migration.")
					return nil
				}
			}
			if _, err := ensureMigrated(repoRoot); err != nil {
				return err
			}
		} else {
			ui.Info(fmt.Sprintf("docspace already initialized at %s", config.RepoConfigPath(repoRoot)))
		}
	} else {
		cfg := config.NewConfigV2()
		if initThoughts != "" {
			cfg.ThoughtsMount = &config.ThoughtsMount{Remote: initThoughts, Sync: config.SyncAuto}
		} else if ui.Interactive() {
			ok, err := ui.PromptConfirmation("Configure a personal thoughts repository now?")
			if err != nil {
				return err
			}
			if ok {
				remote, err := ui.PromptRemote("Thoughts repository remote:", config.ValidateRemote)
				if err != nil {
					return err
				}
				cfg.ThoughtsMount = &config.ThoughtsMount{Remote: remote, Sync: config.SyncAuto}
			}
		}
		if err := config.Save(repoRoot, cfg); err != nil {
			return fmt.Errorf("failed to create config: %w", err)
		}
		ui.Success(fmt.Sprintf("Created %s", config.RepoConfigPath(repoRoot)))
	}

	if err := platform.MkdirSecure(config.StateDirPath(repoRoot)); err != nil {
		return fmt.Errorf("failed to create mount-state directory: %w", err)
	}
	if err := ensureGitignoreEntry(repoRoot, config.StateDirName+"/"); err != nil {
		return fmt.Errorf("failed to update .gitignore: %w", err)
	}

	ui.Success("docspace initialized")
	fmt.Println("\nNext: docspace mount add <remote> <name>")
	return nil
}
