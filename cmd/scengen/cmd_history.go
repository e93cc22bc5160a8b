package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nvandessel/scengen/internal/workflow"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List generated scenarios from the run ledger",
		Long: `List scenarios recorded in <directory>/.scengen/runs.db, newest first.

Examples:
  scengen history -d out
  scengen history -d out --limit 5 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			outputDir := rt.settings.Create.OutputDir
			if cmd.Flags().Changed("directory") {
				outputDir, _ = cmd.Flags().GetString("directory")
			}
			limit := rt.settings.History.Limit
			if cmd.Flags().Changed("limit") {
				limit, _ = cmd.Flags().GetInt("limit")
			}

			runs, err := workflow.History(context.Background(), outputDir, limit)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No scenarios recorded.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tSEED\tAGENTS\tCONTRACTS\tCAPACITY MW\tCREATED\tPATH")
			for _, r := range runs {
				fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%.1f\t%s\t%s\n",
					r.RunCount, r.Seed, r.Agents, r.Contracts, r.CapacityMW,
					r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Path)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringP("directory", "d", "", "Output directory whose ledger to read (default from settings)")
	cmd.Flags().Int("limit", 0, "Maximum number of entries (default from settings)")

	return cmd
}
