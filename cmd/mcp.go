package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/repopulse/internal/analytics"
	"github.com/huangsam/repopulse/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Repopulse MCP server",
	Long:  `Launch an MCP server on stdio that exposes the daily commit series and the analytics question as tools.`,
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		// Logs go to stderr so stdout stays reserved for the protocol.
		return sharedSetup(rootCtx, cmd, nil)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		client := analytics.NewClient(cfg.AnalyticsURL, cfg.Timeout, nil)
		return mcp.StartMCPServer(rootCtx, cfg, storeManager, client)
	},
}
