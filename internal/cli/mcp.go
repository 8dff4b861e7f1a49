package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	hlmcp "github.com/valter-silva-au/hooklens/internal/mcp"
	"go.uber.org/zap"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the hooklens MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the hooklens MCP server on stdio",
	Long: `Start the hooklens MCP server on stdio transport.

The server exposes read-only queries over the storage location as MCP tools:
list_files, list_sessions, get_workflow, get_metrics, search_events and
get_alerts. Global --location, --storage-config and --file flags select the
corpus the tools read.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		engine, err := openEngine(ctx)
		if err != nil {
			return err
		}

		srv := hlmcp.NewServer(engine, AlertEngine, flagFiles, appVersion)
		if Logger != nil {
			Logger.Info("mcp server starting", zap.String("location", engine.Location()))
		}

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}
		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
