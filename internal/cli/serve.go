package cli

import (
	"github.com/gxpkit/batchflow/internal/config"
	flowserver "github.com/gxpkit/batchflow/internal/server"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Long: "Starts the batchflow MCP server on the stdio transport. " +
		"Add it to your AI tool's MCP configuration with command \"batchflow\" and args [\"serve\"].",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fail("loading config", err)
		}

		s, cleanup, err := flowserver.New(cfg)
		if err != nil {
			return fail("creating server", err)
		}
		defer cleanup()

		// stdout carries the MCP protocol; anything human-facing goes
		// to stderr via the log package.
		return server.ServeStdio(s)
	},
}
