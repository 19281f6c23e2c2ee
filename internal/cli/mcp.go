package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ragrep/ragrep/internal/mcp"
)

var mcpPath string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve recall, index, and stats as MCP tools over stdio",
	Long: `Mcp starts a Model Context Protocol server on stdin/stdout so agent
hosts can search the directory without invoking the CLI per query.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), mcpPath)
		if err != nil {
			return err
		}
		defer a.close()

		log.Info().Str("root", a.root).Msg("starting MCP server on stdio")
		srv := mcp.NewServer(a.store, a.idx, a.engine, a.root)
		return srv.Serve(cmd.Context())
	},
}

func init() {
	mcpCmd.Flags().StringVarP(&mcpPath, "path", "p", ".", "directory to serve")
	rootCmd.AddCommand(mcpCmd)
}
