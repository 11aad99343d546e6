package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Comment on tasks",
}

var commentAddCmd = &cobra.Command{
	Use:   "add <task-id> <text>",
	Short: "Add a comment to a task",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		comment, err := svc.Store().AddComment(rootCtx, args[0], getActor(), args[1])
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(comment)
			return
		}
		fmt.Printf("Added comment #%d to %s\n", comment.ID, args[0])
	},
}

var commentListCmd = &cobra.Command{
	Use:     "list <task-id>",
	Aliases: []string{"ls"},
	Short:   "List a task's comments",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		comments, err := svc.Store().GetComments(rootCtx, args[0])
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(comments)
			return
		}
		for _, comment := range comments {
			fmt.Printf("#%d %s (%s)\n  %s\n",
				comment.ID, comment.Author, comment.CreatedAt.Format("2006-01-02 15:04"), comment.Text)
		}
	},
}

func init() {
	commentCmd.AddCommand(commentAddCmd)
	commentCmd.AddCommand(commentListCmd)
	rootCmd.AddCommand(commentCmd)
}
