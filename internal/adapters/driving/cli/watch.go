package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/grounded/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and keep its text files ingested",
	Long: `Watches a directory for .txt and .md files. Existing files are
ingested on startup; new and modified files are (re-)ingested as they
change, and removed files are deleted from the corpus.

Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	w, err := watcher.New(args[0], ingestService, zlog)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])
	if err := w.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
