package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/scengen/internal/config"
	"github.com/nvandessel/scengen/internal/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "scengen",
		Short: "Scenario generator for agent-based energy system simulations",
		Long: `scengen builds simulation scenarios from a base template and a run
configuration.

Each run configuration names agent type templates and how many agents of
each type to create. Attributes may use the directives range_int(a;b),
range_float(a;b), choose(x;y;...) and pickfile(dir), which are resolved
with a seeded random source so every scenario can be reproduced.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "Log level: error, warn, info, debug, trace (default from settings)")
	rootCmd.PersistentFlags().String("logfile", "", "Also write logs to this file (truncated)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newCreateCmd(),
		newValidateCmd(),
		newCheckCmd(),
		newHistoryCmd(),
		newMCPServerCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				printJSON(cmd, map[string]string{
					"version": version,
					"commit":  commit,
					"date":    date,
				})
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scengen version %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

// cliEnv holds what every command needs from settings and global flags.
type cliEnv struct {
	settings *config.Settings
	level    string
	logger   *slog.Logger
	close    func() error
}

// setup loads settings and builds the logger. Flags override settings.
func setup(cmd *cobra.Command) (*cliEnv, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		settings.Logging.Level = lvl
	}
	if file, _ := cmd.Flags().GetString("logfile"); file != "" {
		settings.Logging.File = file
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.NewFileLogger(settings.Logging.Level, settings.Logging.File)
	if err != nil {
		return nil, err
	}
	return &cliEnv{
		settings: settings,
		level:    settings.Logging.Level,
		logger:   logger,
		close:    closeLog,
	}, nil
}
