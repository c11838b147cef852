// Package cli wires the cobra command tree to the core services.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/custodia-labs/grounded/internal/adapters/driven/ai"
	"github.com/custodia-labs/grounded/internal/adapters/driven/config/file"
	"github.com/custodia-labs/grounded/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/grounded/internal/chunker"
	"github.com/custodia-labs/grounded/internal/core/ports/driven"
	"github.com/custodia-labs/grounded/internal/core/ports/driving"
	"github.com/custodia-labs/grounded/internal/core/services"
	"github.com/custodia-labs/grounded/internal/logger"
	"github.com/custodia-labs/grounded/internal/normaliser"
)

// version is the CLI version, overridable at build time via ldflags.
var version = "0.1.0"

// Persistent flags.
var (
	cfgPath string
	verbose bool
)

// Shared application state, initialised by initApp before any command
// that needs the pipeline runs.
var (
	cfg  file.Config
	zlog *zap.Logger

	store            *sqlite.Store
	embeddingService driven.EmbeddingService
	llmService       driven.LLMService
	promptStore      driven.PromptStore

	ingestService driving.IngestService
	answerService driving.AnswerService
	healthService driving.HealthService
)

var rootCmd = &cobra.Command{
	Use:   "grounded",
	Short: "Grounded question answering over your own documents",
	Long: `Grounded ingests text documents, embeds them and answers questions
using only the ingested content, with citations. Questions the corpus
cannot support are refused rather than answered from thin air.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// version and help need no services
		switch cmd.Name() {
		case "version", "help", "completion":
			return nil
		}
		return initApp()
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		shutdown()
	},
}

// Execute runs the root command with the given context. The context is
// cancelled on interrupt so long-running commands shut down cleanly.
func Execute(ctx context.Context) error {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.grounded/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	return rootCmd.ExecuteContext(ctx)
}

// initApp loads configuration and builds the service graph.
func initApp() error {
	var err error

	cfg, err = file.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	zlog = logger.New(verbose)

	store, err = sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	embeddingService, err = ai.CreateEmbeddingService(cfg.Embedding, zlog)
	if err != nil {
		return fmt.Errorf("configuring embedder: %w", err)
	}
	llmService, err = ai.CreateLLMService(cfg.LLM)
	if err != nil {
		return fmt.Errorf("configuring llm: %w", err)
	}
	promptStore, err = file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("configuring prompts: %w", err)
	}

	norm := normaliser.New()
	chk := chunker.New(
		chunker.WithTargetSize(cfg.Chunking.TargetSize),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)
	retriever := services.NewRetriever(services.RetrieverConfig{
		TopN:                cfg.Retrieval.TopN,
		FinalK:              cfg.Retrieval.FinalK,
		SimilarityThreshold: cfg.Retrieval.SimilarityThreshold,
		Lambda:              cfg.Retrieval.Lambda,
	})

	ingestService = services.NewIngestService(norm, chk, embeddingService, store, zlog)
	answerService = services.NewAnswerService(
		embeddingService, store, llmService, promptStore, retriever,
		services.AnswerConfig{
			MaxContextChars: cfg.Answer.MaxContextChars,
			PromptVersion:   cfg.Answer.PromptVersion,
			PreviewLength:   cfg.Answer.PreviewLength,
			Generation: driven.GenerateOptions{
				MaxTokens:   cfg.LLM.MaxTokens,
				Temperature: cfg.LLM.Temperature,
			},
		}, zlog)
	healthService = services.NewHealthService(embeddingService, store, llmService, zlog)

	return nil
}

// shutdown releases everything initApp built.
func shutdown() {
	if embeddingService != nil {
		embeddingService.Close() //nolint:errcheck
	}
	if llmService != nil {
		llmService.Close() //nolint:errcheck
	}
	if store != nil {
		store.Close() //nolint:errcheck
	}
	if zlog != nil {
		zlog.Sync() //nolint:errcheck
	}
}
