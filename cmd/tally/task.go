package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/idgen"
	"github.com/tallyhq/tally/internal/timeparsing"
	"github.com/tallyhq/tally/internal/types"
	"github.com/tallyhq/tally/internal/validation"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskCreateCmd = &cobra.Command{
	Use:     "create <title>",
	Aliases: []string{"new"},
	Short:   "Create a new task under an issue",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		issueID, _ := cmd.Flags().GetString("issue")
		if issueID == "" {
			FatalError("--issue is required")
		}
		description, _ := cmd.Flags().GetString("description")
		importanceStr, _ := cmd.Flags().GetString("importance")
		importance, err := validation.ParseImportance(importanceStr)
		if err != nil {
			FatalError("%v", err)
		}
		assignee, _ := cmd.Flags().GetString("assignee")
		tags, _ := cmd.Flags().GetStringSlice("tag")
		items, _ := cmd.Flags().GetStringArray("item")
		due, _ := cmd.Flags().GetString("due")

		task := &types.Task{
			ID:          idgen.New(idgen.TaskPrefix, args[0], time.Now(), 0),
			IssueID:     issueID,
			Title:       args[0],
			Description: description,
			Importance:  importance,
			Assignee:    assignee,
			Tags:        tags,
		}
		for i, text := range items {
			task.Checklist = append(task.Checklist, types.ChecklistItem{
				ID:   idgen.NewChecklistItem(task.ID, text, i),
				Text: text,
			})
		}
		if due != "" {
			t, err := timeparsing.Parse(due, time.Now())
			if err != nil {
				FatalError("%v", err)
			}
			task.EndDate = &t
		}

		if err := svc.CreateTask(rootCtx, task); err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(task)
			return
		}
		fmt.Printf("Created task %s: %s\n", task.ID, task.Title)
	},
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks in an issue",
	Run: func(cmd *cobra.Command, args []string) {
		issueID, _ := cmd.Flags().GetString("issue")
		if issueID == "" {
			FatalError("--issue is required")
		}
		includeArchived, _ := cmd.Flags().GetBool("archived")

		tasks, err := svc.Store().ListTasks(rootCtx, issueID)
		if err != nil {
			FatalError("%v", err)
		}
		if !includeArchived {
			visible := tasks[:0]
			for _, task := range tasks {
				if !task.Archived {
					visible = append(visible, task)
				}
			}
			tasks = visible
		}

		if jsonOutput {
			outputJSON(tasks)
			return
		}
		for _, task := range tasks {
			printTaskLine(task)
		}
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a task with its checklist",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		task, err := svc.Store().GetTask(rootCtx, args[0])
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(task)
			return
		}
		printTask(task)
	},
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a task's descriptive fields",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		task, err := svc.Store().GetTask(rootCtx, args[0])
		if err != nil {
			FatalError("%v", err)
		}

		if cmd.Flags().Changed("title") {
			task.Title, _ = cmd.Flags().GetString("title")
		}
		if cmd.Flags().Changed("description") {
			task.Description, _ = cmd.Flags().GetString("description")
		}
		if cmd.Flags().Changed("assignee") {
			task.Assignee, _ = cmd.Flags().GetString("assignee")
		}
		if cmd.Flags().Changed("tag") {
			task.Tags, _ = cmd.Flags().GetStringSlice("tag")
		}
		if cmd.Flags().Changed("due") {
			due, _ := cmd.Flags().GetString("due")
			if due == "" {
				task.EndDate = nil
			} else {
				t, err := timeparsing.Parse(due, time.Now())
				if err != nil {
					FatalError("%v", err)
				}
				task.EndDate = &t
			}
		}

		if err := svc.UpdateDetails(rootCtx, task); err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(task)
			return
		}
		fmt.Printf("Updated task %s\n", task.ID)
	},
}

var taskArchiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Archive a task (drops it from rollups, keeps it queryable)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		unarchive, _ := cmd.Flags().GetBool("undo")
		task, err := svc.SetArchived(rootCtx, args[0], !unarchive)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(task)
			return
		}
		if unarchive {
			fmt.Printf("Unarchived task %s\n", task.ID)
		} else {
			fmt.Printf("Archived task %s\n", task.ID)
		}
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := svc.DeleteTask(rootCtx, args[0]); err != nil {
			FatalError("%v", err)
		}
		if !jsonOutput {
			fmt.Printf("Deleted task %s\n", args[0])
		}
	},
}

func init() {
	taskCreateCmd.Flags().StringP("issue", "i", "", "Parent issue ID (required)")
	taskCreateCmd.Flags().StringP("description", "d", "", "Task description")
	taskCreateCmd.Flags().String("importance", "", "Importance: critical, high, medium, low (default: low)")
	taskCreateCmd.Flags().String("assignee", "", "Assignee")
	taskCreateCmd.Flags().StringSlice("tag", nil, "Tags (repeatable)")
	taskCreateCmd.Flags().StringArray("item", nil, "Checklist item (repeatable)")
	taskCreateCmd.Flags().String("due", "", "Due date (+2w, \"next friday\", 2026-03-01)")

	taskListCmd.Flags().StringP("issue", "i", "", "Parent issue ID (required)")
	taskListCmd.Flags().Bool("archived", false, "Include archived tasks")

	taskUpdateCmd.Flags().String("title", "", "New title")
	taskUpdateCmd.Flags().StringP("description", "d", "", "New description")
	taskUpdateCmd.Flags().String("assignee", "", "New assignee")
	taskUpdateCmd.Flags().StringSlice("tag", nil, "Replace tags")
	taskUpdateCmd.Flags().String("due", "", "New due date (empty clears it)")

	taskArchiveCmd.Flags().Bool("undo", false, "Unarchive instead")

	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskUpdateCmd)
	taskCmd.AddCommand(taskArchiveCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	rootCmd.AddCommand(taskCmd)
}
