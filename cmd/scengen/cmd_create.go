package main

import (
	"context"
	"fmt"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/nvandessel/scengen/internal/workflow"
)

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Generate scenarios from a run configuration",
		Long: `Generate scenarios from a run configuration.

Scenario k is written as <base_name>_<k>.yaml and seeded with the base seed
plus k. The run counter and base seed are kept in the trace file named by
defaults.trace_file; a new one is created next to the configuration if
none is set. Every scenario is recorded in <directory>/.scengen/runs.db.

Examples:
  scengen create -c config.yaml                 # settings default count and directory
  scengen create -c config.yaml -n 50 -d out    # 50 scenarios into ./out
  scengen create -c config.yaml --json          # machine-readable summary`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			jsonOut, _ := cmd.Flags().GetBool("json")

			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			number := rt.settings.Create.Number
			if cmd.Flags().Changed("number") {
				number, _ = cmd.Flags().GetInt("number")
			}
			outputDir := rt.settings.Create.OutputDir
			if cmd.Flags().Changed("directory") {
				outputDir, _ = cmd.Flags().GetString("directory")
			}

			ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
			defer stop()

			res, err := workflow.Create(ctx, workflow.Options{
				ConfigPath: configPath,
				OutputDir:  outputDir,
				Number:     number,
				LogLevel:   rt.level,
				Logger:     rt.logger,
			})
			if res != nil && len(res.Scenarios) > 0 && err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "created %d of %d scenarios before failing\n", len(res.Scenarios), number)
			}
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd, res)
			}
			out := cmd.OutOrStdout()
			for _, g := range res.Scenarios {
				mark := ""
				if g.Estimate != nil && !g.Estimate.Plausible {
					mark = "  (no installed capacity)"
				}
				fmt.Fprintf(out, "%s  seed=%d agents=%d contracts=%d%s\n", g.Path, g.Seed, g.Agents, g.Contracts, mark)
			}
			fmt.Fprintf(out, "Created %d/%d scenarios.\n", len(res.Scenarios), number)
			return nil
		},
	}

	cmd.Flags().StringP("config", "c", "", "Run configuration file (required)")
	cmd.Flags().StringP("directory", "d", "", "Output directory (default from settings)")
	cmd.Flags().IntP("number", "n", 0, "Number of scenarios to create (default from settings)")
	cmd.MarkFlagRequired("config")

	return cmd
}
