package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/storage/sqlite"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config file and database",
	Long: `Writes a default config.yaml to the user config directory (unless one
exists) and creates the database with its schema. Safe to re-run.`,
	Run: func(cmd *cobra.Command, args []string) {
		path, err := config.Path()
		if err != nil {
			FatalError("%v", err)
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			if err := cfg.Save(); err != nil {
				FatalError("%v", err)
			}
			fmt.Printf("Wrote %s\n", path)
		} else {
			fmt.Printf("Config exists at %s\n", path)
		}

		dbFile := cfg.Database
		if dbPath != "" {
			dbFile = dbPath
		}
		if err := os.MkdirAll(filepath.Dir(dbFile), 0o755); err != nil {
			FatalError("creating database dir: %v", err)
		}
		s, err := sqlite.New(rootCtx, dbFile)
		if err != nil {
			FatalError("creating database %s: %v", dbFile, err)
		}
		if err := s.Close(); err != nil {
			WarnError("closing database: %v", err)
		}
		fmt.Printf("Database ready at %s\n", dbFile)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
