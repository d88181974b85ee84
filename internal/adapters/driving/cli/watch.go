package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the index when documents change",
	Long: `Builds the index if needed, then watches the documents folder and rebuilds
after changes settle. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if indexWatcher == nil {
		return errors.New("watcher not configured")
	}
	if err := ensureIndex(cmd); err != nil {
		return err
	}

	cmd.Println("Watching for changes. Press Ctrl+C to stop.")
	err := indexWatcher.Start(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
