package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	statsPath string
	statsJSON bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index contents and store size",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), statsPath)
		if err != nil {
			return err
		}
		defer a.close()

		stats, err := a.store.Stats(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if statsJSON {
			return json.NewEncoder(out).Encode(map[string]interface{}{
				"root":             a.root,
				"file_count":       stats.FileCount,
				"chunk_count":      stats.ChunkCount,
				"embedding_count":  stats.EmbeddingCount,
				"store_size_bytes": stats.StoreSizeBytes,
				"model":            stats.Model,
				"last_indexed_at":  stats.LastIndexedAt,
			})
		}

		fmt.Fprintf(out, "Store for %s\n", a.root)
		fmt.Fprintf(out, "  files:      %d\n", stats.FileCount)
		fmt.Fprintf(out, "  chunks:     %d\n", stats.ChunkCount)
		fmt.Fprintf(out, "  embeddings: %d\n", stats.EmbeddingCount)
		fmt.Fprintf(out, "  size:       %d bytes\n", stats.StoreSizeBytes)
		if stats.Model != "" {
			fmt.Fprintf(out, "  model:      %s\n", stats.Model)
		}
		if !stats.LastIndexedAt.IsZero() {
			fmt.Fprintf(out, "  indexed:    %s\n", stats.LastIndexedAt.Local().Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVarP(&statsPath, "path", "p", ".", "directory whose store to inspect")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "emit stats as JSON")
	rootCmd.AddCommand(statsCmd)
}
