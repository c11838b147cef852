package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/grounded/internal/core/domain"
)

func testDocument(id, sourceID string, created time.Time) *domain.Document {
	return &domain.Document{
		ID:        id,
		SourceID:  sourceID,
		Metadata:  map[string]any{"origin": "test"},
		CreatedAt: created,
	}
}

func testChunk(docID string, idx int, content string) domain.Chunk {
	return domain.Chunk{
		ID:          docID + "-" + content,
		DocumentID:  docID,
		Index:       idx,
		Content:     content,
		ContentHash: domain.HashContent(content),
		Embedding:   []float32{float32(idx), 1},
	}
}

func TestCreateAndGetDocument(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := testDocument("doc-1", "notes/a", time.Now().UTC())
	chunks := []domain.Chunk{
		testChunk("doc-1", 0, "first"),
		testChunk("doc-1", 1, "second"),
	}
	require.NoError(t, store.CreateDocument(ctx, doc, chunks))

	got, err := store.GetBySourceID(ctx, "notes/a")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.ID)
	assert.Equal(t, "test", got.Metadata["origin"])

	stored, err := store.GetChunksByDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "first", stored[0].Content)
	assert.Equal(t, "second", stored[1].Content)
}

func TestCreateDocument_ConflictOnSourceID(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.CreateDocument(ctx, testDocument("doc-1", "notes/a", time.Now()), nil))

	err := store.CreateDocument(ctx, testDocument("doc-2", "notes/a", time.Now()), nil)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestGetBySourceID_NotFound(t *testing.T) {
	store := NewDocumentStore()

	_, err := store.GetBySourceID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetChunksByDocument_SortsByIndex(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	// Chunks handed over out of order come back in index order
	chunks := []domain.Chunk{
		testChunk("doc-1", 2, "third"),
		testChunk("doc-1", 0, "first"),
		testChunk("doc-1", 1, "second"),
	}
	require.NoError(t, store.CreateDocument(ctx, testDocument("doc-1", "notes/a", time.Now()), chunks))

	stored, err := store.GetChunksByDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for i, chunk := range stored {
		assert.Equal(t, i, chunk.Index)
	}
}

func TestAllChunks_JoinsSourceIDDeterministically(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.CreateDocument(ctx, testDocument("doc-b", "notes/b", time.Now()),
		[]domain.Chunk{testChunk("doc-b", 0, "b0")}))
	require.NoError(t, store.CreateDocument(ctx, testDocument("doc-a", "notes/a", time.Now()),
		[]domain.Chunk{testChunk("doc-a", 1, "a1"), testChunk("doc-a", 0, "a0")}))

	pool, err := store.AllChunks(ctx)
	require.NoError(t, err)
	require.Len(t, pool, 3)

	assert.Equal(t, "notes/a", pool[0].SourceID)
	assert.Equal(t, 0, pool[0].Chunk.Index)
	assert.Equal(t, "notes/a", pool[1].SourceID)
	assert.Equal(t, 1, pool[1].Chunk.Index)
	assert.Equal(t, "notes/b", pool[2].SourceID)
}

func TestListDocuments_OrdersByCreation(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, store.CreateDocument(ctx, testDocument("doc-2", "notes/later", base.Add(time.Hour)), nil))
	require.NoError(t, store.CreateDocument(ctx, testDocument("doc-1", "notes/earlier", base), nil))

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "notes/earlier", docs[0].SourceID)
	assert.Equal(t, "notes/later", docs[1].SourceID)
}

func TestDeleteDocument_RemovesChunksAndSourceMapping(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.CreateDocument(ctx, testDocument("doc-1", "notes/a", time.Now()),
		[]domain.Chunk{testChunk("doc-1", 0, "only")}))

	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	_, err := store.GetBySourceID(ctx, "notes/a")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	pool, err := store.AllChunks(ctx)
	require.NoError(t, err)
	assert.Empty(t, pool)

	// The source ID is reusable after deletion
	assert.NoError(t, store.CreateDocument(ctx, testDocument("doc-9", "notes/a", time.Now()), nil))
}

func TestDeleteDocument_NotFound(t *testing.T) {
	store := NewDocumentStore()

	err := store.DeleteDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
