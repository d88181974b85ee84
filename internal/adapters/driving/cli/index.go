package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the document index",
	Long: `Reads every supported file in the documents folder, chunks and embeds the
text, extracts slide timelines, and replaces the active index.

A file that cannot be read is reported and skipped; the rest are indexed.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active index",
	Args:  cobra.NoArgs,
	RunE:  runIndexStatus,
}

func init() {
	indexCmd.AddCommand(indexStatusCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	cmd.Println("Indexing documents...")
	report, err := indexService.Rebuild(cmd.Context())
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}
	printReport(cmd, report)
	return nil
}

func runIndexStatus(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	st := indexService.Status()
	if !st.Ready {
		cmd.Println("No index loaded. Run 'docqa index' to build one.")
		return nil
	}
	cmd.Printf("Chunks:          %d\n", st.Chunks)
	cmd.Printf("Embedding model: %s\n", st.EmbeddingModel)
	if !st.BuiltAt.IsZero() {
		cmd.Printf("Built:           %s\n", st.BuiltAt.Local().Format(time.DateTime))
	}
	return nil
}

func printReport(cmd *cobra.Command, r driving.IndexReport) {
	cmd.Printf("Indexed %d files (%d skipped, %d failed) into %d chunks in %s\n",
		r.Files-r.Skipped-r.Failed, r.Skipped, r.Failed, r.Chunks, r.Duration.Round(time.Millisecond))
	if r.Milestones+r.Spans+r.Statuses > 0 {
		cmd.Printf("Timeline: %d milestones, %d spans, %d statuses", r.Milestones, r.Spans, r.Statuses)
		if r.Warnings > 0 {
			cmd.Printf(" (%d warnings)", r.Warnings)
		}
		cmd.Println()
	}
	for _, err := range r.Errors {
		cmd.Printf("  ! %v\n", err)
	}
}
