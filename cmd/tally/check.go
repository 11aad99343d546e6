package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/idgen"
	"github.com/tallyhq/tally/internal/tracker"
	"github.com/tallyhq/tally/internal/types"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Edit a task's checklist",
}

var checkAddCmd = &cobra.Command{
	Use:   "add <task-id> <text>",
	Short: "Add a checklist item",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		task, err := svc.Store().GetTask(rootCtx, args[0])
		if err != nil {
			FatalError("%v", err)
		}
		checklist := append(append([]types.ChecklistItem{}, task.Checklist...), types.ChecklistItem{
			ID:   idgen.NewChecklistItem(task.ID, args[1], len(task.Checklist)),
			Text: args[1],
		})
		applyChecklist(task.ID, checklist)
	},
}

var checkToggleCmd = &cobra.Command{
	Use:   "toggle <task-id> <item-id>",
	Short: "Toggle a checklist item's completion",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		task, err := svc.Store().GetTask(rootCtx, args[0])
		if err != nil {
			FatalError("%v", err)
		}
		checklist := append([]types.ChecklistItem{}, task.Checklist...)
		found := false
		for i := range checklist {
			if checklist[i].ID == args[1] {
				checklist[i].Completed = !checklist[i].Completed
				found = true
				break
			}
		}
		if !found {
			FatalError("no checklist item %s on task %s", args[1], task.ID)
		}
		applyChecklist(task.ID, checklist)
	},
}

var checkRemoveCmd = &cobra.Command{
	Use:     "remove <task-id> <item-id>",
	Aliases: []string{"rm"},
	Short:   "Remove a checklist item",
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		task, err := svc.Store().GetTask(rootCtx, args[0])
		if err != nil {
			FatalError("%v", err)
		}
		checklist := make([]types.ChecklistItem, 0, len(task.Checklist))
		found := false
		for _, item := range task.Checklist {
			if item.ID == args[1] {
				found = true
				continue
			}
			checklist = append(checklist, item)
		}
		if !found {
			FatalError("no checklist item %s on task %s", args[1], task.ID)
		}
		applyChecklist(task.ID, checklist)
	},
}

var checkClearCmd = &cobra.Command{
	Use:   "clear <task-id>",
	Short: "Remove every checklist item",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		applyChecklist(args[0], nil)
	},
}

// applyChecklist runs the edit through the full pipeline and reports the
// resulting task state.
func applyChecklist(taskID string, checklist []types.ChecklistItem) {
	result, err := svc.EditChecklist(rootCtx, taskID, checklist, completionConfirmer)
	if err != nil {
		FatalError("%v", err)
	}
	reportChecklistResult(result)
}

func reportChecklistResult(result *tracker.ChecklistResult) {
	if jsonOutput {
		outputJSON(result)
		return
	}
	if result.RequiredConfirmation && !result.Confirmed {
		fmt.Println("Kept in progress; use 'tally done' to complete it.")
	}
	printTask(result.Task)
}

func init() {
	for _, cmd := range []*cobra.Command{checkAddCmd, checkToggleCmd, checkRemoveCmd, checkClearCmd} {
		cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Accept the completion prompt without asking")
	}

	checkCmd.AddCommand(checkAddCmd)
	checkCmd.AddCommand(checkToggleCmd)
	checkCmd.AddCommand(checkRemoveCmd)
	checkCmd.AddCommand(checkClearCmd)
	rootCmd.AddCommand(checkCmd)
}
