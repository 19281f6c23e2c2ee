package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ragrep/ragrep/pkg/types"
)

var (
	recallLimit       int
	recallPath        string
	recallJSON        bool
	recallNoAutoIndex bool
)

var recallCmd = &cobra.Command{
	Use:   "recall <query>...",
	Short: "Search the index with a natural language query",
	Long: `Recall refreshes the index for the target directory, embeds the query,
and prints the chunks most similar to it, best first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRecall(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "), recallPath, recallLimit, recallJSON, !recallNoAutoIndex)
	},
}

func runRecall(ctx context.Context, out io.Writer, query, path string, limit int, asJSON, autoIndex bool) error {
	a, err := newApp(ctx, path)
	if err != nil {
		return err
	}
	defer a.close()

	matches, err := a.engine.Recall(ctx, query, a.root, effectiveLimit(limit, cfg.Limit), autoIndex)
	if err != nil {
		return err
	}

	if asJSON {
		return json.NewEncoder(out).Encode(matches)
	}
	printMatches(out, matches)
	return nil
}

// effectiveLimit resolves the match limit: an explicit flag wins, then the
// configured default, then the engine's own default.
func effectiveLimit(flagLimit, cfgLimit int) int {
	if flagLimit > 0 {
		return flagLimit
	}
	if cfgLimit > 0 {
		return cfgLimit
	}
	return 0
}

func printMatches(out io.Writer, matches []types.Match) {
	if len(matches) == 0 {
		fmt.Fprintln(out, "no matches")
		return
	}
	for i, m := range matches {
		fmt.Fprintf(out, "%d. %s#%d (score %.4f, bytes %d-%d)\n",
			i+1, m.SourcePath, m.SequenceIndex, m.Score, m.StartOffset, m.EndOffset)
		text := strings.TrimRight(m.ChunkText, "\n")
		for _, line := range strings.Split(text, "\n") {
			fmt.Fprintf(out, "   %s\n", line)
		}
		fmt.Fprintln(out)
	}
}

func init() {
	recallCmd.Flags().IntVarP(&recallLimit, "limit", "n", 0, "maximum number of matches")
	recallCmd.Flags().StringVarP(&recallPath, "path", "p", ".", "directory to search")
	recallCmd.Flags().BoolVar(&recallJSON, "json", false, "emit matches as JSON")
	recallCmd.Flags().BoolVar(&recallNoAutoIndex, "no-auto-index", false, "query the store as-is without refreshing the index")
	rootCmd.AddCommand(recallCmd)
}
