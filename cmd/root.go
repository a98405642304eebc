package cmd

import (
	"os"

	"github.com/byterings/docspace/internal/ui"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "docspace",
	Short: "Unified documentation tree across many git repositories",
	Long: `docspace presents documentation scattered across many git repositories
as a single directory tree with three spaces:

  thoughts/    personal notes (writable, synced)
  context/     team-shared docs (writable, synced)
  references/  external repositories (read-only)

Each piece of content stays versioned in its own upstream repository;
docspace clones, updates and mounts them for you.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if s, err := loadSettings(); err == nil {
			ui.SetColor(s.Color)
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
