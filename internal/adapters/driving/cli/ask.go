package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/grounded/internal/core/domain"
)

var (
	askStream bool
	askJSON   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against the ingested documents",
	Long: `Answers a question using only the ingested content, with citations.
When nothing in the corpus is similar enough to the question, the answer
is refused instead of hallucinated.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askStream, "stream", false, "stream the answer token by token")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON (NDJSON events when streaming)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	if askStream {
		return runAskStream(cmd, args[0])
	}

	result, err := answerService.Answer(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	switch result.Outcome {
	case domain.OutcomeEmptyContext:
		cmd.Println("Nothing has been ingested yet. Add documents with 'grounded ingest' first.")
	case domain.OutcomeNoRelevantContent:
		cmd.Printf("No relevant content found (best similarity %.2f, threshold %.2f).\n",
			result.MaxSimilarity, result.Threshold)
	default:
		cmd.Println(result.Answer)
		if len(result.Sources) > 0 {
			cmd.Println()
			cmd.Println("Sources:")
			for i, src := range result.Sources {
				cmd.Printf("  [%d] %s (%.2f)\n", i+1, src.SourceID, src.Score)
			}
		}
	}
	return nil
}

// runAskStream prints the answer as it is generated.
func runAskStream(cmd *cobra.Command, question string) error {
	events, err := answerService.AnswerStream(cmd.Context(), question)
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for event := range events {
		if askJSON {
			if err := enc.Encode(event); err != nil {
				return fmt.Errorf("encoding event: %w", err)
			}
			continue
		}

		switch event.Type {
		case domain.StreamEventToken:
			cmd.Print(event.Token)
		case domain.StreamEventDone:
			cmd.Println()
			if event.Done.GuardrailTriggered {
				cmd.Println("No relevant content found.")
			} else if event.Done.SourceCount > 0 {
				cmd.Printf("(%d sources)\n", event.Done.SourceCount)
			}
		case domain.StreamEventError:
			cmd.Println()
			return fmt.Errorf("stream failed: %s: %s", event.Err.Code, event.Err.Message)
		}
	}
	return nil
}
