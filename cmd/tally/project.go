package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/idgen"
	"github.com/tallyhq/tally/internal/types"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectCreateCmd = &cobra.Command{
	Use:     "create <name>",
	Aliases: []string{"new"},
	Short:   "Create a new project",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		description, _ := cmd.Flags().GetString("description")

		project := &types.Project{
			ID:          idgen.New(idgen.ProjectPrefix, args[0], time.Now(), 0),
			Name:        args[0],
			Description: description,
		}
		if err := svc.CreateProject(rootCtx, project); err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(project)
			return
		}
		fmt.Printf("Created project %s: %s\n", project.ID, project.Name)
	},
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all projects",
	Run: func(cmd *cobra.Command, args []string) {
		projects, err := svc.Store().ListProjects(rootCtx)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(projects)
			return
		}
		for _, project := range projects {
			printProjectLine(project)
		}
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a project with its rollup summary",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		project, err := svc.Store().GetProject(rootCtx, args[0])
		if err != nil {
			FatalError("%v", err)
		}
		result, err := svc.PreviewProject(rootCtx, project.ID)
		if err != nil {
			FatalError("%v", err)
		}
		issues, err := svc.Store().ListIssues(rootCtx, project.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]interface{}{
				"project": project,
				"live":    result,
				"issues":  issues,
			})
			return
		}
		printProjectLine(project)
		if project.Description != "" {
			fmt.Printf("  %s\n", project.Description)
		}
		fmt.Printf("  live: %s\n", progressBar(result.Progress))
		if len(result.Preview) > 0 {
			fmt.Println("  top issues:")
			for _, child := range result.Preview {
				fmt.Printf("    %s  %s\n", child.ID, progressBar(child.Progress))
			}
		}
		fmt.Printf("  issues: %d\n", len(issues))
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project and everything under it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := svc.Store().DeleteProject(rootCtx, args[0]); err != nil {
			FatalError("%v", err)
		}
		if !jsonOutput {
			fmt.Printf("Deleted project %s\n", args[0])
		}
	},
}

func init() {
	projectCreateCmd.Flags().StringP("description", "d", "", "Project description")

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	rootCmd.AddCommand(projectCmd)
}
