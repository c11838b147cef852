package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, "llama3.2", cfg.LLM.Model)
	assert.Equal(t, 20, cfg.Retrieval.TopN)
	assert.Equal(t, 5, cfg.Retrieval.FinalK)
	assert.Equal(t, 0.75, cfg.Retrieval.SimilarityThreshold)
	assert.Equal(t, 0.5, cfg.Retrieval.Lambda)
	assert.Equal(t, 1000, cfg.Chunking.TargetSize)
	assert.Equal(t, 200, cfg.Chunking.Overlap)
	assert.Equal(t, "v1", cfg.Answer.PromptVersion)
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_LayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
data_dir = "/tmp/grounded-test"

[retrieval]
similarity_threshold = 0.6
final_k = 3

[llm]
model = "llama3.1"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	// Overridden values
	assert.Equal(t, "/tmp/grounded-test", cfg.DataDir)
	assert.Equal(t, 0.6, cfg.Retrieval.SimilarityThreshold)
	assert.Equal(t, 3, cfg.Retrieval.FinalK)
	assert.Equal(t, "llama3.1", cfg.LLM.Model)

	// Everything else keeps its default
	assert.Equal(t, 20, cfg.Retrieval.TopN)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("retrieval = [broken"), 0600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.DataDir = "/var/lib/grounded"
	cfg.Embedding.Timeout = 45 * time.Second
	cfg.Retrieval.Lambda = 0.7

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
