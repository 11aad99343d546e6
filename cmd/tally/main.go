package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/debug"
	"github.com/tallyhq/tally/internal/storage"
	"github.com/tallyhq/tally/internal/storage/memory"
	"github.com/tallyhq/tally/internal/storage/sqlite"
	"github.com/tallyhq/tally/internal/telemetry"
	"github.com/tallyhq/tally/internal/tracker"
)

var (
	cfgFile     string
	dbPath      string
	memoryMode  bool
	jsonOutput  bool
	actorFlag   string
	verboseFlag bool
	quietFlag   bool

	cfg   *config.Config
	store storage.Storage
	svc   *tracker.Service

	// Signal-aware context for graceful cancellation.
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

// getActor resolves the comment author.
// Priority: --actor flag > TALLY_ACTOR env > config actor > git user.name > $USER > "unknown".
func getActor() string {
	if actorFlag != "" {
		return actorFlag
	}
	if envActor := os.Getenv("TALLY_ACTOR"); envActor != "" {
		return envActor
	}
	if cfg != nil && cfg.Actor != "" {
		return cfg.Actor
	}
	if out, err := exec.Command("git", "config", "user.name").Output(); err == nil {
		if gitUser := strings.TrimSpace(string(out)); gitUser != "" {
			return gitUser
		}
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "unknown"
}

var rootCmd = &cobra.Command{
	Use:   "tally",
	Short: "tally - Checklist-driven progress tracker",
	Long:  `Tracks projects, issues, and tasks with checklist-derived progress that rolls up the tree automatically.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("tally version %s (%s)\n", Version, Build)
			return
		}
		_ = cmd.Help()
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupSignalContext()
		applyVerbosityFlags()

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput || cfg.NoColor {
			color.NoColor = true
		}

		if err := telemetry.Init(rootCtx, "tally", Version); err != nil {
			WarnError("telemetry init failed: %v", err)
		}

		if isNoDbCommand(cmd) {
			return
		}
		openStore(cmd)
		svc = tracker.New(store,
			tracker.WithQueryTimeout(cfg.QueryTimeout),
			tracker.WithPreviewLimit(cfg.PreviewLimit),
		)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			if err := store.Close(); err != nil {
				WarnError("closing store: %v", err)
			}
		}
		telemetry.Shutdown(context.Background())
		if rootCancel != nil {
			rootCancel()
		}
	},
}

// noDbCommands run without opening a database.
var noDbCommands = map[string]bool{
	"version":    true,
	"help":       true,
	"completion": true,
	"init":       true, // creates the database itself
}

func isNoDbCommand(cmd *cobra.Command) bool {
	return noDbCommands[cmd.Name()]
}

func setupSignalContext() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func applyVerbosityFlags() {
	if verboseFlag {
		debug.SetVerbose(true)
	}
	if quietFlag {
		debug.SetQuiet(true)
	}
}

// openStore opens sqlite (or the in-memory store) per flags and config.
// --db wins over config; --memory wins over both.
func openStore(cmd *cobra.Command) {
	if memoryMode {
		store = telemetry.WrapStorage(memory.New())
		return
	}

	path := cfg.Database
	if dbPath != "" {
		path = dbPath
	}

	s, err := sqlite.New(rootCtx, path)
	if err != nil {
		FatalErrorWithHint(fmt.Sprintf("opening database %s: %v", path, err),
			"Check the path or pass --memory for an ephemeral store")
	}
	store = telemetry.WrapStorage(s)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: from config)")
	rootCmd.PersistentFlags().BoolVar(&memoryMode, "memory", false, "Use an in-memory store (data discarded on exit)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&actorFlag, "actor", "", "Author name for comments (default: $TALLY_ACTOR, git user.name, $USER)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")

	rootCmd.Flags().BoolP("version", "V", false, "Print version information")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
