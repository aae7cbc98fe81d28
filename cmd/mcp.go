package cmd

import (
	"github.com/huangsam/firewatch/internal/mcp"
	"github.com/huangsam/firewatch/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the firewatch MCP server",
	Long:  `Launch an MCP server over stdio that lets AI agents evaluate readings and query the reading store.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol; keep stderr logging quiet unless asked
		viper.SetDefault("log-level", "warn")
		return sharedSetupWrapper(cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, store.Manager.GetReadingStore())
	},
}
