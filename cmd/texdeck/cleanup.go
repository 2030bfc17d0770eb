package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

// cleanupCmd represents the cleanup command
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete artifacts and media older than the max age",
	Long: `Remove generated artifacts and uploaded media from the output
directory once they are older than output.max_age_seconds (3600 by default).`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, ".")
	if err != nil {
		return err
	}

	cleaned, err := a.converter.Cleanup(commandContext(cmd))
	if err != nil {
		return err
	}

	dir, _ := filepath.Abs(a.store.Dir())
	fmt.Fprintf(cmd.OutOrStdout(), "Cleaned %d old files in %s\n", cleaned, dir)
	return nil
}
