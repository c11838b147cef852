package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var ingestMeta []string

var ingestCmd = &cobra.Command{
	Use:   "ingest [source-id] [file]",
	Short: "Ingest a text document",
	Long: `Ingest a text document into the corpus under the given source id.
Reads from the file argument, or from stdin when no file is given.

The text is cleaned, split into overlapping chunks, embedded and stored.
Ingesting the same source id twice is an error; delete it first.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringArrayVarP(&ingestMeta, "meta", "m", nil, "metadata entry as key=value (repeatable)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	sourceID := args[0]

	var text string
	if len(args) == 2 {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[1], err)
		}
		text = string(data)
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	}

	metadata, err := parseMetadata(ingestMeta)
	if err != nil {
		return err
	}

	result, err := ingestService.Ingest(cmd.Context(), sourceID, text, metadata)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Ingested %s\n", sourceID)
	cmd.Printf("  Document: %s\n", result.DocumentID)
	cmd.Printf("  Chunks:   %d\n", result.ChunkCount)
	return nil
}

// parseMetadata turns repeated key=value flags into a metadata map.
func parseMetadata(entries []string) (map[string]any, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	metadata := make(map[string]any, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata entry %q, expected key=value", entry)
		}
		metadata[key] = value
	}
	return metadata, nil
}
