package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/grounded/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/grounded/internal/core/domain"
)

// newAnswerFixture wires an answer service over an in-memory store with
// word-vector embeddings, so vocabulary overlap drives similarity.
func newAnswerFixture(llm *fakeLLM, cfg AnswerConfig) (*AnswerService, *memory.DocumentStore) {
	store := memory.NewDocumentStore()
	svc := NewAnswerService(
		&fakeEmbedder{},
		store,
		llm,
		&fakePromptStore{},
		NewRetriever(RetrieverConfig{}),
		cfg,
		nil,
	)
	return svc, store
}

// seedDocument stores one document with pre-embedded chunks.
func seedDocument(t *testing.T, store *memory.DocumentStore, sourceID string, contents ...string) {
	t.Helper()

	now := time.Now().UTC()
	doc := domain.Document{ID: sourceID + "-id", SourceID: sourceID, CreatedAt: now}
	chunks := make([]domain.Chunk, len(contents))
	for i, content := range contents {
		chunks[i] = domain.Chunk{
			ID:          fmt.Sprintf("%s-chunk-%d", sourceID, i),
			DocumentID:  doc.ID,
			Index:       i,
			Content:     content,
			ContentHash: domain.HashContent(content),
			Embedding:   wordVector(content),
			CreatedAt:   now,
		}
	}
	require.NoError(t, store.CreateDocument(context.Background(), &doc, chunks))
}

const (
	daylightChunk = "Daylight minutes are computed from sunrise to sunset."
	breadChunk    = "Bread rises because the yeast produces carbon dioxide gas."

	daylightQuery  = "How are daylight minutes computed from sunrise to sunset?"
	unrelatedQuery = "Why do volcanoes erupt near plate boundaries?"
)

func TestAnswer_Answered(t *testing.T) {
	llm := &fakeLLM{completion: "They are counted from sunrise to sunset."}
	svc, store := newAnswerFixture(llm, AnswerConfig{})
	seedDocument(t, store, "almanac/daylight", daylightChunk)
	seedDocument(t, store, "kitchen/bread", breadChunk)

	result, err := svc.Answer(context.Background(), daylightQuery)
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeAnswered, result.Outcome)
	assert.Equal(t, llm.completion, result.Answer)
	assert.Equal(t, "fake-llm", result.Model)
	assert.Equal(t, DefaultPromptVersion, result.PromptVersion)
	assert.Positive(t, result.Usage.CompletionTokens)

	require.NotEmpty(t, result.Sources)
	assert.Equal(t, "almanac/daylight", result.Sources[0].SourceID)
	assert.GreaterOrEqual(t, result.Sources[0].Score, DefaultSimilarityThreshold)

	// The prompt carries the retrieved context and the verbatim question
	assert.Contains(t, llm.lastPrompt, daylightChunk)
	assert.Contains(t, llm.lastPrompt, daylightQuery)
}

func TestAnswer_EmptyQuery(t *testing.T) {
	svc, _ := newAnswerFixture(&fakeLLM{}, AnswerConfig{})

	_, err := svc.Answer(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Answer(context.Background(), "   \n ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAnswer_EmptyCorpus(t *testing.T) {
	llm := &fakeLLM{completion: "unused"}
	svc, _ := newAnswerFixture(llm, AnswerConfig{})

	result, err := svc.Answer(context.Background(), daylightQuery)
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeEmptyContext, result.Outcome)
	assert.Empty(t, result.Answer)
	assert.Empty(t, llm.lastPrompt, "the model must not be called")
}

func TestAnswer_GuardrailRefusesLowSimilarity(t *testing.T) {
	llm := &fakeLLM{completion: "unused"}
	svc, store := newAnswerFixture(llm, AnswerConfig{})
	seedDocument(t, store, "almanac/daylight", daylightChunk)

	result, err := svc.Answer(context.Background(), unrelatedQuery)
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeNoRelevantContent, result.Outcome)
	assert.Empty(t, result.Answer)
	assert.Empty(t, result.Sources)
	assert.Equal(t, DefaultSimilarityThreshold, result.Threshold)
	assert.Less(t, result.MaxSimilarity, DefaultSimilarityThreshold)
	assert.Empty(t, llm.lastPrompt, "the model must not be called")
}

func TestAnswer_GenerationFailure(t *testing.T) {
	llm := &fakeLLM{generateErr: errors.New("model overloaded")}
	svc, store := newAnswerFixture(llm, AnswerConfig{})
	seedDocument(t, store, "almanac/daylight", daylightChunk)

	_, err := svc.Answer(context.Background(), daylightQuery)
	assert.ErrorIs(t, err, domain.ErrGenerationService)
}

func TestAnswer_EmbeddingFailure(t *testing.T) {
	store := memory.NewDocumentStore()
	svc := NewAnswerService(
		&fakeEmbedder{embedErr: errors.New("provider down")},
		store,
		&fakeLLM{},
		&fakePromptStore{},
		NewRetriever(RetrieverConfig{}),
		AnswerConfig{},
		nil,
	)
	seedDocument(t, store, "almanac/daylight", daylightChunk)

	_, err := svc.Answer(context.Background(), daylightQuery)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
}

func TestAnswer_ContextBudgetDropsOverflowingChunks(t *testing.T) {
	llm := &fakeLLM{completion: "Short answer."}
	cfg := AnswerConfig{MaxContextChars: len(daylightChunk) + 5, PreviewLength: 10}
	svc, store := newAnswerFixture(llm, cfg)
	seedDocument(t, store, "almanac/daylight",
		daylightChunk,
		"Daylight minutes are longest near the summer solstice.",
	)

	result, err := svc.Answer(context.Background(), daylightQuery)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeAnswered, result.Outcome)

	// Only the first selected chunk fits the budget; the second is
	// dropped whole, never truncated into the prompt.
	assert.Len(t, result.Sources, 1)
	assert.NotContains(t, llm.lastPrompt, chunkSeparator)

	for _, src := range result.Sources {
		assert.LessOrEqual(t, len([]rune(src.ContentPreview)), cfg.PreviewLength)
	}
}

func TestAnswer_OversizedSingleChunkIsTruncated(t *testing.T) {
	llm := &fakeLLM{completion: "Short answer."}
	svc, store := newAnswerFixture(llm, AnswerConfig{MaxContextChars: 20})
	seedDocument(t, store, "almanac/daylight", daylightChunk)

	result, err := svc.Answer(context.Background(), daylightQuery)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeAnswered, result.Outcome)

	require.Len(t, result.Sources, 1)
	assert.Contains(t, llm.lastPrompt, daylightChunk[:20])
	assert.NotContains(t, llm.lastPrompt, daylightChunk)
}

// collectStream drains a stream into a slice.
func collectStream(t *testing.T, events <-chan domain.StreamEvent) []domain.StreamEvent {
	t.Helper()

	var collected []domain.StreamEvent
	for ev := range events {
		collected = append(collected, ev)
	}
	return collected
}

func TestAnswerStream_TokensThenDone(t *testing.T) {
	llm := &fakeLLM{completion: "Counted from sunrise to sunset."}
	svc, store := newAnswerFixture(llm, AnswerConfig{})
	seedDocument(t, store, "almanac/daylight", daylightChunk)

	events, err := svc.AnswerStream(context.Background(), daylightQuery)
	require.NoError(t, err)

	collected := collectStream(t, events)
	require.NotEmpty(t, collected)

	last := collected[len(collected)-1]
	require.Equal(t, domain.StreamEventDone, last.Type)
	require.NotNil(t, last.Done)

	var text strings.Builder
	for _, ev := range collected[:len(collected)-1] {
		require.Equal(t, domain.StreamEventToken, ev.Type)
		text.WriteString(ev.Token)
	}
	assert.Equal(t, llm.completion, text.String())
	assert.Equal(t, len(collected)-1, last.Done.TokenCount)
	assert.Equal(t, 1, last.Done.SourceCount)
	assert.Equal(t, DefaultPromptVersion, last.Done.PromptVersion)
	assert.False(t, last.Done.GuardrailTriggered)
}

func TestAnswerStream_GuardrailEndsWithoutTokens(t *testing.T) {
	svc, store := newAnswerFixture(&fakeLLM{completion: "unused"}, AnswerConfig{})
	seedDocument(t, store, "almanac/daylight", daylightChunk)

	events, err := svc.AnswerStream(context.Background(), unrelatedQuery)
	require.NoError(t, err)

	collected := collectStream(t, events)
	require.Len(t, collected, 1)
	require.Equal(t, domain.StreamEventDone, collected[0].Type)
	require.NotNil(t, collected[0].Done)
	assert.True(t, collected[0].Done.GuardrailTriggered)
	assert.Zero(t, collected[0].Done.TokenCount)
}

func TestAnswerStream_EmptyCorpus(t *testing.T) {
	svc, _ := newAnswerFixture(&fakeLLM{completion: "unused"}, AnswerConfig{})

	events, err := svc.AnswerStream(context.Background(), daylightQuery)
	require.NoError(t, err)

	collected := collectStream(t, events)
	require.Len(t, collected, 1)
	require.Equal(t, domain.StreamEventError, collected[0].Type)
	require.NotNil(t, collected[0].Err)
	assert.Equal(t, domain.StreamErrEmptyContext, collected[0].Err.Code)
}

func TestAnswerStream_MidStreamFailure(t *testing.T) {
	llm := &fakeLLM{
		completion: "Counted from sunrise to sunset.",
		streamErr:  errors.New("connection reset"),
	}
	svc, store := newAnswerFixture(llm, AnswerConfig{})
	seedDocument(t, store, "almanac/daylight", daylightChunk)

	events, err := svc.AnswerStream(context.Background(), daylightQuery)
	require.NoError(t, err)

	collected := collectStream(t, events)
	require.NotEmpty(t, collected)

	last := collected[len(collected)-1]
	require.Equal(t, domain.StreamEventError, last.Type)
	require.NotNil(t, last.Err)
	assert.Equal(t, domain.StreamErrGeneration, last.Err.Code)

	// Tokens delivered before the failure are still plain token events
	for _, ev := range collected[:len(collected)-1] {
		assert.Equal(t, domain.StreamEventToken, ev.Type)
	}
}

func TestAnswerStream_EmptyQuery(t *testing.T) {
	svc, _ := newAnswerFixture(&fakeLLM{}, AnswerConfig{})

	events, err := svc.AnswerStream(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, events)
}

func TestAnswerStream_CancelledContextClosesStream(t *testing.T) {
	llm := &fakeLLM{completion: "Counted from sunrise to sunset."}
	svc, store := newAnswerFixture(llm, AnswerConfig{})
	seedDocument(t, store, "almanac/daylight", daylightChunk)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := svc.AnswerStream(ctx, daylightQuery)
	require.NoError(t, err)
	cancel()

	// The channel must close; at most one terminal event may slip out.
	terminals := 0
	for ev := range events {
		if ev.Type != domain.StreamEventToken {
			terminals++
		}
	}
	assert.LessOrEqual(t, terminals, 1)
}
