// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/custodia-labs/grounded/internal/adapters/driven/config/file"
	ollamaembed "github.com/custodia-labs/grounded/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/grounded/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/grounded/internal/adapters/driven/embedding/resilient"
	ollamallm "github.com/custodia-labs/grounded/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/grounded/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/grounded/internal/core/ports/driven"
)

// Supported provider names.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// apiKeyEnv is where the OpenAI key is read from. Keys never live in
// the config file.
const apiKeyEnv = "OPENAI_API_KEY"

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService creates the configured embedding provider,
// wrapped in the resilient decorator (dedup, cache, retry, throttle).
func CreateEmbeddingService(cfg file.EmbeddingConfig, logger *zap.Logger) (driven.EmbeddingService, error) {
	var inner driven.EmbeddingService

	switch cfg.Provider {
	case ProviderOllama:
		inner = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Timeout:    cfg.Timeout,
			Dimensions: cfg.Dimensions,
		})

	case ProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     os.Getenv(apiKeyEnv),
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Timeout:    cfg.Timeout,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("creating openai embedder: %w", err)
		}
		inner = svc

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", cfg.Provider)
	}

	return resilient.New(inner, resilient.Config{
		MaxAttempts:       cfg.MaxAttempts,
		RequestsPerSecond: cfg.RequestsPerSecond,
		CallTimeout:       cfg.Timeout,
	}, logger), nil
}

// CreateLLMService creates the configured generation provider.
func CreateLLMService(cfg file.LLMConfig) (driven.LLMService, error) {
	switch cfg.Provider {
	case ProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil

	case ProviderOpenAI:
		svc, err := openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  os.Getenv(apiKeyEnv),
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("creating openai llm: %w", err)
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.Provider)
	}
}

// ValidateEmbeddingService pings the service with a bounded timeout.
func ValidateEmbeddingService(svc driven.EmbeddingService) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLMService pings the service with a bounded timeout.
func ValidateLLMService(svc driven.LLMService) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}
