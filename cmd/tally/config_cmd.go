package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/storage"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Get and set database-scoped settings",
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a setting",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		value, err := svc.Store().GetConfig(rootCtx, args[0])
		if errors.Is(err, storage.ErrNotFound) {
			FatalError("no setting %q", args[0])
		}
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(map[string]string{args[0]: value})
			return
		}
		fmt.Println(value)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := svc.Store().SetConfig(rootCtx, args[0], args[1]); err != nil {
			FatalError("%v", err)
		}
		if !jsonOutput {
			fmt.Printf("Set %s = %s\n", args[0], args[1])
		}
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
