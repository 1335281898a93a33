package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/inhalrisk/internal/mcp"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long: "Runs inhalrisk as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes the ntp937_assess and ntp937_tables tools.",
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol.
	e, err := newEnv(os.Stderr)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e.logger.Info("inhalrisk MCP server running on stdio", "config_hash", e.hash)
	return mcp.New(e.svc, version).Run(ctx)
}
