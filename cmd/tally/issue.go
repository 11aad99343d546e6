package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/idgen"
	"github.com/tallyhq/tally/internal/timeparsing"
	"github.com/tallyhq/tally/internal/types"
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Manage issues",
}

var issueCreateCmd = &cobra.Command{
	Use:     "create <title>",
	Aliases: []string{"new"},
	Short:   "Create a new issue under a project",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		projectID, _ := cmd.Flags().GetString("project")
		if projectID == "" {
			FatalError("--project is required")
		}
		description, _ := cmd.Flags().GetString("description")
		due, _ := cmd.Flags().GetString("due")

		issue := &types.Issue{
			ID:          idgen.New(idgen.IssuePrefix, args[0], time.Now(), 0),
			ProjectID:   projectID,
			Title:       args[0],
			Description: description,
		}
		if due != "" {
			t, err := timeparsing.Parse(due, time.Now())
			if err != nil {
				FatalError("%v", err)
			}
			issue.EndDate = &t
		}
		if err := svc.CreateIssue(rootCtx, issue); err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(issue)
			return
		}
		fmt.Printf("Created issue %s: %s\n", issue.ID, issue.Title)
	},
}

var issueListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List issues in a project",
	Run: func(cmd *cobra.Command, args []string) {
		projectID, _ := cmd.Flags().GetString("project")
		if projectID == "" {
			FatalError("--project is required")
		}
		issues, err := svc.Store().ListIssues(rootCtx, projectID)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(issues)
			return
		}
		for _, issue := range issues {
			printIssueLine(issue)
		}
	},
}

var issueShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an issue with its live rollup and top tasks",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		issue, err := svc.Store().GetIssue(rootCtx, args[0])
		if err != nil {
			FatalError("%v", err)
		}
		result, err := svc.PreviewIssue(rootCtx, issue.ID)
		if err != nil {
			FatalError("%v", err)
		}
		tasks, err := svc.Store().ListTasks(rootCtx, issue.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]interface{}{
				"issue": issue,
				"live":  result,
				"tasks": tasks,
			})
			return
		}
		printIssueLine(issue)
		if issue.Description != "" {
			fmt.Printf("  %s\n", issue.Description)
		}
		if issue.EndDate != nil {
			fmt.Printf("  due: %s\n", formatDate(issue.EndDate))
		}
		fmt.Printf("  live: %s\n", progressBar(result.Progress))
		if len(result.Preview) > 0 {
			fmt.Println("  top tasks:")
			for _, child := range result.Preview {
				fmt.Printf("    %s  %s  %s\n", child.ID, child.Importance, progressBar(child.Progress))
			}
		}
		fmt.Printf("  tasks: %d\n", len(tasks))
	},
}

var issueDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an issue and its tasks",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := svc.Store().DeleteIssue(rootCtx, args[0]); err != nil {
			FatalError("%v", err)
		}
		if !jsonOutput {
			fmt.Printf("Deleted issue %s\n", args[0])
		}
	},
}

func init() {
	issueCreateCmd.Flags().StringP("project", "p", "", "Parent project ID (required)")
	issueCreateCmd.Flags().StringP("description", "d", "", "Issue description")
	issueCreateCmd.Flags().String("due", "", "Due date (+2w, \"next friday\", 2026-03-01)")
	issueListCmd.Flags().StringP("project", "p", "", "Parent project ID (required)")

	issueCmd.AddCommand(issueCreateCmd)
	issueCmd.AddCommand(issueListCmd)
	issueCmd.AddCommand(issueShowCmd)
	issueCmd.AddCommand(issueDeleteCmd)
	rootCmd.AddCommand(issueCmd)
}
