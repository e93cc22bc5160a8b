package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/scengen/internal/workflow"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a run configuration without generating",
		Long: `Check a run configuration without writing any scenario.

This command checks for:
  - Schema violations in the run configuration
  - A missing or unreadable base template
  - Duplicate or ambiguous agent aliases
  - external_ids that name no create-directive
  - Type templates with contracts that reference no placeholder
  - Malformed count expressions

Example:
  scengen validate -c config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			jsonOut, _ := cmd.Flags().GetBool("json")

			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			v, err := workflow.Validate(configPath)
			if err != nil {
				rt.logger.Debug("validation failed", "error", err)
				return err
			}

			if jsonOut {
				return printJSON(cmd, v)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Run configuration is valid: %d base agent(s), creates %s\n",
				v.BaseAgents, aliasList(v.Aliases))
			return nil
		},
	}

	cmd.Flags().StringP("config", "c", "", "Run configuration file (required)")
	cmd.MarkFlagRequired("config")

	return cmd
}

func aliasList(aliases []string) string {
	if len(aliases) == 0 {
		return "nothing"
	}
	return strings.Join(aliases, ", ")
}
