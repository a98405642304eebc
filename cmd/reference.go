package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/byterings/docspace/internal/config"
	"github.com/byterings/docspace/internal/mapping"
	"github.com/byterings/docspace/internal/mountplan"
	"github.com/byterings/docspace/internal/ui"
	"github.com/spf13/cobra"
)

var referenceCmd = &cobra.Command{
	Use:     "reference",
	Aliases: []string{"ref"},
	Short:   "Manage read-only reference repositories",
}

var referenceAddDesc string

var referenceAddCmd = &cobra.Command{
	Use:   "add <remote>",
	Short: "Add a reference repository",
	Long: `Register an external repository as a read-only reference. It mounts under
the references dir at <org>/<repo>, derived from the remote. References are
cloned once and only refetched on 'reference sync'.`,
	Args: cobra.ExactArgs(1),
	RunE: runReferenceAdd,
}

var referenceRemoveCmd = &cobra.Command{
	Use:   "remove <remote>",
	Short: "Remove a reference from the repository config",
	Args:  cobra.ExactArgs(1),
	RunE:  runReferenceRemove,
}

var referenceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured references",
	RunE:  runReferenceList,
}

var referenceSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch and reset every reference to upstream",
	Long: `Bring every reference clone up to date with its remote. References never
carry local work, so this resets them to upstream unconditionally.`,
	RunE: runReferenceSync,
}

func init() {
	rootCmd.AddCommand(referenceCmd)
	referenceCmd.AddCommand(referenceAddCmd)
	referenceCmd.AddCommand(referenceRemoveCmd)
	referenceCmd.AddCommand(referenceListCmd)
	referenceCmd.AddCommand(referenceSyncCmd)

	referenceAddCmd.Flags().StringVar(&referenceAddDesc, "description", "", "Human-readable note stored in the config")
}

func runReferenceAdd(cmd *cobra.Command, args []string) error {
	remote := args[0]
	if err := config.ValidateRemote(remote); err != nil {
		return err
	}
	// Fail before touching the config if the remote has no org/repo shape.
	org, repo, err := mapping.SplitOrgRepo(remote)
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
		return cfg.AddReference(config.ReferenceMount{Remote: remote, Description: referenceAddDesc})
	})
	if err != nil {
		return err
	}
	reportMigration(backup)
	ui.Success(fmt.Sprintf("Added reference %s/%s", org, repo))

	space := mountplan.Reference(org, repo)
	return reconcile(cmd.Context(), repoRoot, false, func(e mountplan.Entry) bool {
		return e.Space == space
	})
}

func runReferenceRemove(cmd *cobra.Command, args []string) error {
	remote := args[0]

	if _, err := linkWorktreeIfNeeded(); err != nil {
		return err
	}
	repoRoot, err := workingRepoRoot()
	if err != nil {
		return err
	}
	_, backup, err := config.Mutate(repoRoot, func(cfg *config.ConfigV2) error {
		if !cfg.RemoveReference(remote) {
			return fmt.Errorf("no reference with remote '%s'", remote)
		}
		return nil
	})
	if err != nil {
		return err
	}
	reportMigration(backup)
	ui.Success(fmt.Sprintf("Removed reference %s (clone left on disk)", remote))

	return remount(cmd.Context(), repoRoot)
}

func runReferenceList(cmd *cobra.Command, args []string) error {
	repoRoot, err := workingRepoRoot()
	if err != nil {
		return err
	}
	cfg, err := config.Load(repoRoot)
	if err != nil {
		return err
	}
	if cfg == nil {
		ui.Info("Not initialized; run 'docspace init'")
		return nil
	}

	var refs []config.ReferenceMount
	switch cfg.Version {
	case config.VersionV2:
		refs = cfg.V2.References
	case config.VersionV1:
		// Show what migration would classify as references, without
		// persisting anything.
		v2, err := config.Migrate(cfg.V1)
		if err != nil {
			return err
		}
		refs = v2.References
	}

	if len(refs) == 0 {
		ui.Info("No references configured")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REFERENCE\tREMOTE\tDESCRIPTION")
	for _, r := range refs {
		org, repo, err := mapping.SplitOrgRepo(r.Remote)
		if err != nil {
			return &mountplan.UnparsableRemoteError{Remote: r.Remote, Err: err}
		}
		fmt.Fprintf(w, "%s/%s\t%s\t%s\n", org, repo, r.Remote, r.Description)
	}
	return w.Flush()
}

func runReferenceSync(cmd *cobra.Command, args []string) error {
	if _, err := linkWorktreeIfNeeded(); err != nil {
		return err
	}
	repoRoot, err := workingRepoRoot()
	if err != nil {
		return err
	}
	if _, err := ensureMigrated(repoRoot); err != nil {
		return err
	}

	return reconcile(cmd.Context(), repoRoot, true, func(e mountplan.Entry) bool {
		return e.Space.Kind == mountplan.KindReference
	})
}
