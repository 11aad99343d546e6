package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/validation"
)

var statusCmd = &cobra.Command{
	Use:   "status <task-id> <status>",
	Short: "Set a task's status explicitly",
	Long: `Sets a task's status directly. This is the only way out of on_hold and
discarded; checklist edits never move those.

Valid statuses: incomplete, in_progress, completed, on_hold, discarded.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		status, err := validation.ParseStatus(args[1])
		if err != nil {
			FatalError("%v", err)
		}
		task, err := svc.SetStatus(rootCtx, args[0], status)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(task)
			return
		}
		fmt.Printf("%s is now %s at %s\n", task.ID, statusLabel(task.Status), progressBar(task.Progress))
	},
}

var doneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Mark a task completed, checking off every item",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		task, err := svc.MarkCompleted(rootCtx, args[0])
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(task)
			return
		}
		fmt.Printf("%s completed\n", task.ID)
	},
}

var importanceCmd = &cobra.Command{
	Use:   "importance <task-id> <level>",
	Short: "Set a task's importance (critical, high, medium, low)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		importance, err := validation.ParseImportance(args[1])
		if err != nil {
			FatalError("%v", err)
		}
		task, err := svc.SetImportance(rootCtx, args[0], importance)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(task)
			return
		}
		fmt.Printf("%s importance set to %s\n", task.ID, task.Importance)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(importanceCmd)
}
