// Package file provides file-based configuration and prompt storage.
package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the full application configuration, loaded from a TOML
// file with sensible defaults for anything left unset.
type Config struct {
	// DataDir is where the SQLite database lives.
	// Defaults to ~/.grounded/data.
	DataDir string `toml:"data_dir"`

	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Answer    AnswerConfig    `toml:"answer"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	// Provider selects the backend: "openai" or "ollama".
	Provider string `toml:"provider"`

	// BaseURL overrides the provider's default API base URL.
	BaseURL string `toml:"base_url"`

	// Model is the embedding model name.
	Model string `toml:"model"`

	// Dimensions is the embedding vector size (model-dependent).
	Dimensions int `toml:"dimensions"`

	// Timeout bounds each embedding API call.
	Timeout time.Duration `toml:"timeout"`

	// MaxAttempts bounds retries for transient embedding failures.
	MaxAttempts int `toml:"max_attempts"`

	// RequestsPerSecond throttles embedding API calls.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// LLMConfig configures the answer generation provider.
type LLMConfig struct {
	// Provider selects the backend: "openai" or "ollama".
	Provider string `toml:"provider"`

	// BaseURL overrides the provider's default API base URL.
	BaseURL string `toml:"base_url"`

	// Model is the generation model name.
	Model string `toml:"model"`

	// Timeout bounds each generation call, including streams.
	Timeout time.Duration `toml:"timeout"`

	// MaxTokens caps completion length. Zero leaves it to the provider.
	MaxTokens int `toml:"max_tokens"`

	// Temperature controls sampling randomness.
	Temperature float64 `toml:"temperature"`
}

// RetrievalConfig configures candidate selection and re-ranking.
type RetrievalConfig struct {
	// TopN is how many candidates survive the similarity scan.
	TopN int `toml:"top_n"`

	// FinalK is how many chunks make it into the answer context.
	FinalK int `toml:"final_k"`

	// SimilarityThreshold is the relevance guardrail. Queries whose best
	// match scores below it are answered with a refusal.
	SimilarityThreshold float64 `toml:"similarity_threshold"`

	// Lambda trades relevance against diversity during re-ranking.
	Lambda float64 `toml:"lambda"`
}

// ChunkingConfig configures document splitting.
type ChunkingConfig struct {
	// TargetSize is the preferred chunk length in characters.
	TargetSize int `toml:"target_size"`

	// Overlap is how many trailing characters carry into the next chunk.
	Overlap int `toml:"overlap"`
}

// AnswerConfig configures prompt assembly.
type AnswerConfig struct {
	// MaxContextChars caps the total context passed to the LLM.
	MaxContextChars int `toml:"max_context_chars"`

	// PromptVersion selects which answer prompt template to use.
	PromptVersion string `toml:"prompt_version"`

	// PreviewLength is how many characters of each source chunk are
	// echoed back in answer citations.
	PreviewLength int `toml:"preview_length"`
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() Config {
	return Config{
		Embedding: EmbeddingConfig{
			Provider:          "ollama",
			Model:             "nomic-embed-text",
			Timeout:           30 * time.Second,
			MaxAttempts:       3,
			RequestsPerSecond: 2,
		},
		LLM: LLMConfig{
			Provider:    "ollama",
			Model:       "llama3.2",
			Timeout:     300 * time.Second,
			Temperature: 0.2,
		},
		Retrieval: RetrievalConfig{
			TopN:                20,
			FinalK:              5,
			SimilarityThreshold: 0.75,
			Lambda:              0.5,
		},
		Chunking: ChunkingConfig{
			TargetSize: 1000,
			Overlap:    200,
		},
		Answer: AnswerConfig{
			MaxContextChars: 8000,
			PromptVersion:   "v1",
			PreviewLength:   160,
		},
	}
}

// DefaultConfigPath returns ~/.grounded/config.toml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".grounded", "config.toml"), nil
}

// LoadConfig reads configuration from the given TOML file, layering it
// over the defaults. A missing file is not an error; the defaults are
// returned as-is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return cfg, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the configuration to the given TOML file, creating
// the parent directory if needed.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
