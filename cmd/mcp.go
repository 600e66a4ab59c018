package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joescharf/jules/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for agent integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets coding agents drive Jules sessions natively. Configure with:

  {
    "mcpServers": {
      "jules": { "command": "jules", "args": ["mcp"] }
    }
  }

Available tools: jules_list_sources, jules_get_source, jules_list_sessions,
jules_get_session, jules_create_session, jules_send_message,
jules_approve_plan, jules_list_activities, jules_get_activity,
jules_create_pull_request, jules_session_digest`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}

		// The launch log and summarizer are optional for the server.
		s, err := getStore()
		if err != nil {
			ui.VerboseLog("launch log unavailable: %v", err)
			s = nil
		}

		// Assign through the interface only when non-nil, otherwise the
		// server would see a non-nil interface wrapping a nil client.
		var summarizer mcp.Summarizer
		if lc := newLLMClient(); lc != nil {
			summarizer = lc
		}

		srv := mcp.NewServer(client, s, summarizer)
		return srv.ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
