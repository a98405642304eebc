package cmd

import (
	"fmt"

	"github.com/byterings/docspace/internal/mountplan"
	"github.com/spf13/cobra"
)

var syncReferences bool

var syncCmd = &cobra.Command{
	Use:   "sync [mount]",
	Short: "Bring mounted repositories up to date",
	Long: `Fetch and fast-forward every auto-sync mount, cloning anything that is
missing. References are cloned when absent but otherwise left untouched
unless --references is given, which fetches and resets them to upstream.

Failures are reported per mount; one broken mount never blocks the rest.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVar(&syncReferences, "references", false, "Also fetch and reset read-only references")
}

func runSync(cmd *cobra.Command, args []string) error {
	// A worktree syncs through its primary tree; link first, then follow.
	if _, err := linkWorktreeIfNeeded(); err != nil {
		return err
	}

	repoRoot, err := workingRepoRoot()
	if err != nil {
		return err
	}

	// Mutating pipeline: migration precedes resolution.
	if _, err := ensureMigrated(repoRoot); err != nil {
		return err
	}

	// With a positional mount name only that entry syncs; otherwise the
	// whole plan does, and the engine itself skips already-cloned
	// references unless --references was given.
	var only func(mountplan.Entry) bool
	if len(args) == 1 {
		space, err := mountplan.ParseSpace(args[0])
		if err != nil {
			return err
		}
		only = func(e mountplan.Entry) bool { return e.Space == space }
	}

	if err := reconcile(cmd.Context(), repoRoot, syncReferences, only); err != nil {
		return err
	}

	fmt.Println("\nSync complete")
	return nil
}
