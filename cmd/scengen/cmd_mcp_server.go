package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/scengen/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve scengen tools over MCP (stdio)",
		Long: `Start a Model Context Protocol server on stdin/stdout.

Tools:
  scengen_generate   generate scenarios from a run configuration
  scengen_validate   check a run configuration
  scengen_history    list the run ledger of an output directory

Every path a tool receives must lie under --root. Tool calls are recorded
in <root>/.scengen/audit.jsonl.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")

			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			server, err := mcp.NewServer(&mcp.Config{
				Name:     "scengen",
				Version:  version,
				Root:     root,
				LogLevel: rt.level,
				Logger:   rt.logger,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer server.Close()

			rt.logger.Info("mcp server starting", "root", root)
			return server.Run(context.Background())
		},
	}

	cmd.Flags().String("root", ".", "Directory tools may read from and write to")

	return cmd
}
