package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/grounded/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testDocument(id, sourceID string) *domain.Document {
	return &domain.Document{
		ID:        id,
		SourceID:  sourceID,
		Metadata:  map[string]any{"origin": "test"},
		CreatedAt: time.Now().UTC(),
	}
}

func testChunk(docID string, idx int, content string, embedding []float32) domain.Chunk {
	return domain.Chunk{
		ID:          docID + "-" + content,
		DocumentID:  docID,
		Index:       idx,
		Content:     content,
		ContentHash: domain.HashContent(content),
		Embedding:   embedding,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestStore_CreateAndGetDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := testDocument("doc-1", "notes/a")
	chunks := []domain.Chunk{
		testChunk("doc-1", 0, "first", []float32{0.25, -1.5, 3}),
		testChunk("doc-1", 1, "second", []float32{1, 0, -0.125}),
	}
	require.NoError(t, store.CreateDocument(ctx, doc, chunks))

	got, err := store.GetBySourceID(ctx, "notes/a")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.ID)
	assert.Equal(t, "notes/a", got.SourceID)
	assert.Equal(t, "test", got.Metadata["origin"])

	stored, err := store.GetChunksByDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, stored, 2)

	// Embeddings survive the blob round trip bit for bit
	assert.Equal(t, []float32{0.25, -1.5, 3}, stored[0].Embedding)
	assert.Equal(t, []float32{1, 0, -0.125}, stored[1].Embedding)
	assert.Equal(t, "first", stored[0].Content)
	assert.Equal(t, domain.HashContent("first"), stored[0].ContentHash)
	assert.Equal(t, 0, stored[0].Index)
	assert.Equal(t, 1, stored[1].Index)
}

func TestStore_CreateDocument_ConflictOnSourceID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateDocument(ctx, testDocument("doc-1", "notes/a"), nil))

	err := store.CreateDocument(ctx, testDocument("doc-2", "notes/a"), nil)
	assert.ErrorIs(t, err, domain.ErrConflict)

	// The failed insert must not leave a second document behind
	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestStore_GetBySourceID_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetBySourceID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_AllChunks_JoinsSourceID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateDocument(ctx, testDocument("doc-b", "notes/b"),
		[]domain.Chunk{testChunk("doc-b", 0, "b0", []float32{1})}))
	require.NoError(t, store.CreateDocument(ctx, testDocument("doc-a", "notes/a"),
		[]domain.Chunk{
			testChunk("doc-a", 0, "a0", []float32{2}),
			testChunk("doc-a", 1, "a1", []float32{3}),
		}))

	pool, err := store.AllChunks(ctx)
	require.NoError(t, err)
	require.Len(t, pool, 3)

	// Ordered by source id, then chunk index
	assert.Equal(t, "notes/a", pool[0].SourceID)
	assert.Equal(t, "a0", pool[0].Chunk.Content)
	assert.Equal(t, "notes/a", pool[1].SourceID)
	assert.Equal(t, "a1", pool[1].Chunk.Content)
	assert.Equal(t, "notes/b", pool[2].SourceID)
	assert.Equal(t, []float32{1}, pool[2].Chunk.Embedding)
}

func TestStore_DeleteDocument_CascadesToChunks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateDocument(ctx, testDocument("doc-1", "notes/a"),
		[]domain.Chunk{testChunk("doc-1", 0, "only", []float32{1})}))

	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	_, err := store.GetBySourceID(ctx, "notes/a")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	pool, err := store.AllChunks(ctx)
	require.NoError(t, err)
	assert.Empty(t, pool)
}

func TestStore_DeleteDocument_NotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.DeleteDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.CreateDocument(ctx, testDocument("doc-1", "notes/a"),
		[]domain.Chunk{testChunk("doc-1", 0, "persisted", []float32{0.5, -0.5})}))
	require.NoError(t, store.Close())

	// Reopening must find the schema already migrated and the data intact
	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	doc, err := reopened.GetBySourceID(ctx, "notes/a")
	require.NoError(t, err)
	chunks, err := reopened.GetChunksByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "persisted", chunks[0].Content)
	assert.Equal(t, []float32{0.5, -0.5}, chunks[0].Embedding)
}

func TestStore_Ping(t *testing.T) {
	store := newTestStore(t)

	assert.NoError(t, store.Ping(context.Background()))
}

func TestFloat32BlobCodec(t *testing.T) {
	tests := []struct {
		name  string
		input []float32
	}{
		{"empty", nil},
		{"single", []float32{1.5}},
		{"mixed signs", []float32{-0.001, 0, 42.25, -1e30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.input, bytesToFloat32Slice(float32SliceToBytes(tt.input)))
		})
	}
}
