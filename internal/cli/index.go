package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var indexForce bool

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a directory incrementally",
	Long: `Index scans the directory, embeds files that were added or modified since
the last run, and removes deleted files from the store. Unchanged files are
not re-embedded.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) == 1 {
			path = args[0]
		}

		a, err := newApp(cmd.Context(), path)
		if err != nil {
			return err
		}
		defer a.close()

		summary, err := a.idx.Run(cmd.Context(), a.root, indexForce)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Indexed %s\n", a.root)
		fmt.Fprintf(out, "  scanned:   %d\n", summary.FilesScanned)
		fmt.Fprintf(out, "  indexed:   %d\n", summary.FilesIndexed)
		fmt.Fprintf(out, "  unchanged: %d\n", summary.FilesUnchanged)
		fmt.Fprintf(out, "  deleted:   %d\n", summary.FilesDeleted)
		fmt.Fprintf(out, "  chunks:    %d\n", summary.ChunksCreated)
		fmt.Fprintf(out, "  duration:  %s\n", summary.Duration.Round(time.Millisecond))
		if summary.FilesSkipped > 0 {
			fmt.Fprintf(out, "  skipped:   %d\n", summary.FilesSkipped)
			for _, msg := range summary.Errors {
				fmt.Fprintf(out, "    %s\n", msg)
			}
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "drop all indexed data and rebuild")
	rootCmd.AddCommand(indexCmd)
}
