package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/byterings/docspace/internal/config"
	"github.com/byterings/docspace/internal/gitsync"
	"github.com/byterings/docspace/internal/mapping"
	"github.com/byterings/docspace/internal/mountplan"
	"github.com/byterings/docspace/internal/ui"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the mount plan for the current repository",
	Long: `Display every mount the configuration calls for, where each one resolves
to on disk, and whether its backing clone exists yet.

Status is strictly read-only: it never migrates a v1 config and never
creates mapping entries for remotes it has not seen before.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	if cfg.Version == config.VersionV1 {
		ui.Warning("Config is v1; the plan below reflects its v2 migration. Run 'docspace config migrate' to persist it.")
	}

	ds, err := mountplan.Desired(cfg)
	if err != nil {
		return err
	}

	store, err := mapping.Open()
	if err != nil {
		return err
	}
	plan, err := mountplan.Peek(ds, store)
	if err != nil {
		return err
	}

	if len(plan.Entries) == 0 {
		ui.Info("No mounts configured")
		return nil
	}

	fmt.Printf("Mount root: %s\n\n", config.StateDirPath(repoRoot))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MOUNT\tTARGET\tSYNC\tMODE\tCLONE")
	for _, e := range plan.Entries {
		mode := "rw"
		if e.ReadOnly {
			mode = "ro"
		}
		clone := describeClone(e)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Space, e.TargetPath, e.Sync, mode, clone)
	}
	return w.Flush()
}

func describeClone(e mountplan.Entry) string {
	if e.ClonePath == "" {
		return "unmapped"
	}
	if !gitsync.IsRepo(e.ClonePath) {
		return "missing (" + e.ClonePath + ")"
	}
	return e.ClonePath
}
