package services

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"

	"github.com/custodia-labs/grounded/internal/core/ports/driven"
)

// --- Shared test fakes ---

// wordVector builds a deterministic bag-of-words embedding so texts that
// share vocabulary score high cosine similarity, unrelated texts low.
func wordVector(text string) []float32 {
	vec := make([]float32, 64)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'()")
		if word == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%64]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		n := float32(math.Sqrt(norm))
		for i := range vec {
			vec[i] /= n
		}
	}
	return vec
}

// fakeEmbedder implements driven.EmbeddingService with word vectors.
type fakeEmbedder struct {
	mu         sync.Mutex
	batchCalls [][]string
	embedErr   error
	pingErr    error
}

var _ driven.EmbeddingService = (*fakeEmbedder)(nil)

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return wordVector(text), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.batchCalls = append(f.batchCalls, append([]string(nil), texts...))
	f.mu.Unlock()

	if f.embedErr != nil {
		return nil, f.embedErr
	}
	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = wordVector(text)
	}
	return result, nil
}

func (f *fakeEmbedder) Dimensions() int              { return 64 }
func (f *fakeEmbedder) ModelName() string            { return "fake-embed" }
func (f *fakeEmbedder) Ping(_ context.Context) error { return f.pingErr }
func (f *fakeEmbedder) Close() error                 { return nil }

// fakeLLM implements driven.LLMService with canned output.
type fakeLLM struct {
	completion  string
	generateErr error
	streamErr   error // delivered as an error delta mid-stream
	lastPrompt  string
	pingErr     error
}

var _ driven.LLMService = (*fakeLLM)(nil)

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (*driven.Completion, error) {
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	f.lastPrompt = prompt
	return &driven.Completion{
		Text:             f.completion,
		PromptTokens:     len(prompt) / 4,
		CompletionTokens: len(f.completion) / 4,
		Model:            "fake-llm",
	}, nil
}

func (f *fakeLLM) GenerateStream(ctx context.Context, prompt string, _ driven.GenerateOptions) (<-chan driven.StreamDelta, error) {
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	f.lastPrompt = prompt

	deltas := make(chan driven.StreamDelta)
	go func() {
		defer close(deltas)
		send := func(d driven.StreamDelta) bool {
			select {
			case deltas <- d:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, token := range strings.SplitAfter(f.completion, " ") {
			if token == "" {
				continue
			}
			if !send(driven.StreamDelta{Token: token}) {
				return
			}
		}
		if f.streamErr != nil {
			send(driven.StreamDelta{Err: f.streamErr})
			return
		}
		send(driven.StreamDelta{
			Final:            true,
			PromptTokens:     len(prompt) / 4,
			CompletionTokens: len(f.completion) / 4,
		})
	}()
	return deltas, nil
}

func (f *fakeLLM) ModelName() string            { return "fake-llm" }
func (f *fakeLLM) Ping(_ context.Context) error { return f.pingErr }
func (f *fakeLLM) Close() error                 { return nil }

// fakePromptStore serves a fixed template.
type fakePromptStore struct {
	template string
	loadErr  error
	loaded   []string
}

var _ driven.PromptStore = (*fakePromptStore)(nil)

func (f *fakePromptStore) Load(name string) (string, error) {
	f.loaded = append(f.loaded, name)
	if f.loadErr != nil {
		return "", f.loadErr
	}
	if f.template == "" {
		return "Context:\n%s\n\nQuestion: %s\n\nAnswer:", nil
	}
	return f.template, nil
}
