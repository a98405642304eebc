package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/byterings/docspace/internal/config"
	"github.com/byterings/docspace/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and migrate the repository configuration",
}

var configShowMigrated bool

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the repository configuration",
	Long: `Print the config file as stored. With --migrated, a v1 config is shown as
the v2 it would migrate to, without writing anything.`,
	RunE: runConfigShow,
}

var configMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate a v1 config to v2",
	Long: `Rewrite the config file in the v2 schema. The original v1 file is kept as
a timestamped backup when it declared any mounts or rules. Running against
a config that is already v2 is a no-op.`,
	RunE: runConfigMigrate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configMigrateCmd)

	configShowCmd.Flags().BoolVar(&configShowMigrated, "migrated", false, "Show a v1 config as its v2 migration")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
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

	var out any
	switch {
	case cfg.Version == config.VersionV2:
		out = cfg.V2
	case configShowMigrated:
		v2, err := config.Migrate(cfg.V1)
		if err != nil {
			return err
		}
		out = v2
	default:
		out = cfg.V1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runConfigMigrate(cmd *cobra.Command, args []string) error {
	repoRoot, err := workingRepoRoot()
	if err != nil {
		return err
	}
	if !config.Exists(repoRoot) {
		return fmt.Errorf("no repository configuration found; run 'docspace init' first")
	}

	cfg, err := config.Load(repoRoot)
	if err != nil {
		return err
	}
	if cfg.Version == config.VersionV2 {
		ui.Info("Config is already v2")
		return nil
	}

	if _, err := ensureMigrated(repoRoot); err != nil {
		return err
	}
	ui.Success("Migration complete")
	return nil
}
