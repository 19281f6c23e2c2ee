// Package cli wires the cobra command tree. A bare invocation with
// arguments is shorthand for recall, so `ragrep how does auth work` just
// works.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ragrep/ragrep/internal/config"
	"github.com/ragrep/ragrep/internal/storage"
)

// Version metadata, injected at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var (
	cfg     *config.Config
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ragrep [query...]",
	Short: "Semantic recall over a local directory",
	Long: `ragrep indexes the text files of a directory into a local vector store
and answers natural language queries with the most relevant chunks.

Indexing is incremental: only files that changed since the last run are
re-embedded. The store is a single SQLite file inside the indexed root.`,
	Version: fmt.Sprintf("%s (commit %s, %s build, sqlite driver %s)",
		Version, Commit, storage.BuildMode, storage.DriverName),
	SilenceUsage: true,
	Args:         cobra.ArbitraryArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := zerolog.WarnLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(level)

		var err error
		cfg, err = loadConfig(cmd)
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		// Bare arguments are a recall query.
		return runRecall(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "), recallPath, recallLimit, recallJSON, !recallNoAutoIndex)
	},
}

// Execute runs the command tree.
func Execute() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pf.String("store", "", "path to the store file (default: <root>/"+config.DefaultStoreName+")")
	pf.Int("chunk-size", 0, "chunk window size in bytes")
	pf.Int("chunk-overlap", 0, "chunk window overlap in bytes")
	pf.String("provider", "", "embedding provider: auto, openai, ollama, local")
	pf.String("model", "", "embedding model override")
	pf.String("staleness", "", "change detection mode: mtime or hash")

	// Recall flags are registered on root too so the bare-query shorthand
	// accepts them.
	rootCmd.Flags().IntVarP(&recallLimit, "limit", "n", 0, "maximum number of matches")
	rootCmd.Flags().StringVarP(&recallPath, "path", "p", ".", "directory to search")
	rootCmd.Flags().BoolVar(&recallJSON, "json", false, "emit matches as JSON")
	rootCmd.Flags().BoolVar(&recallNoAutoIndex, "no-auto-index", false, "query the store as-is without refreshing the index")
}

// loadConfig layers CLI flags over environment variables over defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("store"); v != "" {
		c.StorePath = v
	}
	if v, _ := flags.GetInt("chunk-size"); v > 0 {
		c.ChunkSize = v
	}
	if v, _ := flags.GetInt("chunk-overlap"); flags.Changed("chunk-overlap") {
		c.ChunkOverlap = v
	}
	if v, _ := flags.GetString("provider"); v != "" {
		c.Provider = v
	}
	if v, _ := flags.GetString("model"); v != "" {
		c.Model = v
	}
	if v, _ := flags.GetString("staleness"); v != "" {
		c.Staleness = v
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
