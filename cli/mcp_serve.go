package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yoanbernabeu/strmlink/mcp"
)

var mcpServeCmd = &cobra.Command{
	Use:   "mcp-serve",
	Short: "Start strmlink as an MCP server",
	Long: `Start strmlink as an MCP (Model Context Protocol) server.

The server communicates via stdio and exposes the following tools:

  - strmlink_scan: Create links for the pointer files in a directory
  - strmlink_cleanup: Remove dangling symbolic links
  - strmlink_kinds: List the registered payload and companion kinds

Configuration for Cursor (.cursor/mcp.json):
  {
    "mcpServers": {
      "strmlink": {
        "command": "strmlink",
        "args": ["mcp-serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	rootCmd.AddCommand(mcpServeCmd)
}

func runMCPServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	srv := mcp.NewServer(newEngine(cfg), version, cfg.Scan.Recursive)
	if err := srv.Serve(); err != nil {
		return fmt.Errorf("mcp server stopped: %w", err)
	}
	return nil
}
