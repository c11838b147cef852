package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/grounded/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/grounded/internal/chunker"
	"github.com/custodia-labs/grounded/internal/core/domain"
	"github.com/custodia-labs/grounded/internal/normaliser"
)

// newIngestFixture builds an ingest service over an in-memory store.
func newIngestFixture(embedder *fakeEmbedder) (*IngestService, *memory.DocumentStore) {
	store := memory.NewDocumentStore()
	svc := NewIngestService(
		normaliser.New(),
		chunker.New(chunker.WithTargetSize(80), chunker.WithOverlap(0)),
		embedder,
		store,
		nil,
	)
	return svc, store
}

func TestIngest_Success(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc, store := newIngestFixture(embedder)
	ctx := context.Background()

	text := "Daylight minutes are computed from sunrise to sunset. " +
		"The figures come from the almanac tables. " +
		"Cloud cover does not change the calculation at all."

	result, err := svc.Ingest(ctx, "almanac/daylight", text, map[string]any{"kind": "note"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.DocumentID)
	assert.Greater(t, result.ChunkCount, 1)

	doc, err := store.GetBySourceID(ctx, "almanac/daylight")
	require.NoError(t, err)
	assert.Equal(t, result.DocumentID, doc.ID)
	assert.Equal(t, "note", doc.Metadata["kind"])

	chunks, err := store.GetChunksByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, result.ChunkCount)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index, "indices must be contiguous")
		assert.Equal(t, domain.HashContent(chunk.Content), chunk.ContentHash)
		assert.Equal(t, wordVector(chunk.Content), chunk.Embedding)
		assert.Equal(t, doc.ID, chunk.DocumentID)
	}

	// All chunks were embedded in a single batch call
	require.Len(t, embedder.batchCalls, 1)
	assert.Len(t, embedder.batchCalls[0], result.ChunkCount)
}

func TestIngest_ValidatesInput(t *testing.T) {
	svc, _ := newIngestFixture(&fakeEmbedder{})
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "", "some text", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Ingest(ctx, "   ", "some text", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Ingest(ctx, "doc-1", "   \n ", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngest_NoChunks(t *testing.T) {
	svc, _ := newIngestFixture(&fakeEmbedder{})

	// Markup-only input survives validation but cleans to nothing
	_, err := svc.Ingest(context.Background(), "doc-1", "<script>let x = 1;</script>", nil)
	assert.ErrorIs(t, err, domain.ErrNoChunks)
}

func TestIngest_DuplicateSourceID(t *testing.T) {
	svc, _ := newIngestFixture(&fakeEmbedder{})
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "doc-1", "First version of the text.", nil)
	require.NoError(t, err)

	_, err = svc.Ingest(ctx, "doc-1", "Second version of the text.", nil)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestIngest_DeduplicatesIdenticalChunks(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc, store := newIngestFixture(embedder)
	ctx := context.Background()

	// Four identical sentences produce identical chunks
	text := strings.Repeat("The same exact sentence appears over and over again. ", 4)

	result, err := svc.Ingest(ctx, "doc-dup", text, nil)
	require.NoError(t, err)

	doc, err := store.GetBySourceID(ctx, "doc-dup")
	require.NoError(t, err)
	chunks, err := store.GetChunksByDocument(ctx, doc.ID)
	require.NoError(t, err)

	hashes := make(map[string]struct{})
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index, "indices must stay contiguous after dedup")
		hashes[chunk.ContentHash] = struct{}{}
	}
	assert.Len(t, hashes, len(chunks), "no duplicate content may be stored")
	assert.Equal(t, len(chunks), result.ChunkCount)
}

func TestIngest_EmbeddingFailureLeavesNothingBehind(t *testing.T) {
	embedder := &fakeEmbedder{embedErr: errors.New("provider down")}
	svc, store := newIngestFixture(embedder)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "doc-1", "Some text that will fail to embed.", nil)
	require.ErrorIs(t, err, domain.ErrEmbeddingService)

	_, err = store.GetBySourceID(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	pool, err := store.AllChunks(ctx)
	require.NoError(t, err)
	assert.Empty(t, pool)
}

func TestDeleteBySourceID(t *testing.T) {
	svc, store := newIngestFixture(&fakeEmbedder{})
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "doc-1", "Text to be deleted later.", nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBySourceID(ctx, "doc-1"))

	_, err = store.GetBySourceID(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	pool, err := store.AllChunks(ctx)
	require.NoError(t, err)
	assert.Empty(t, pool)
}

func TestDeleteBySourceID_NotFound(t *testing.T) {
	svc, _ := newIngestFixture(&fakeEmbedder{})

	err := svc.DeleteBySourceID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
