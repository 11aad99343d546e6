package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Rebuild every cached progress value from child state",
	Long: `Re-runs aggregation for every issue and project from the authoritative
task data. Useful after external writes to the database or if a crash left
stale rollups behind.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := svc.RecomputeAll(rootCtx); err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(map[string]bool{"recomputed": true})
			return
		}
		fmt.Println("Recomputed all progress rollups.")
	},
}

func init() {
	rootCmd.AddCommand(recomputeCmd)
}
