package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/scengen/internal/estimate"
)

// errImplausible makes check exit non-zero for a scenario without capacity.
var errImplausible = errors.New("scenario has no installed capacity")

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <scenario.yaml>",
		Short: "Estimate the installed capacity of a scenario",
		Long: `Sum the installed capacity of a generated scenario per technology.

Conventional agents contribute InstalledPowerInMW, storage agents
Device.InstalledPowerInMW and plant builders the NetCapacityInMW of each
plant. A scenario whose total is not positive is reported as implausible
and the command exits with status 1.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			report, err := estimate.File(args[0], rt.logger)
			if err != nil {
				return err
			}

			if jsonOut {
				if err := printJSON(cmd, report); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				for _, tech := range report.Technologies() {
					fmt.Fprintf(out, "%-20s %10.1f MW  (%d unit(s))\n", tech, report.TechnologyMW(tech), len(report.ByTechnology[tech]))
				}
				fmt.Fprintf(out, "%-20s %10.1f MW\n", "total", report.TotalMW)
			}

			if !report.Plausible {
				return errImplausible
			}
			return nil
		},
	}
}
