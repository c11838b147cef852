package driven

import (
	"context"

	"github.com/custodia-labs/grounded/internal/core/domain"
)

// CandidateChunk is a stored chunk joined with its document's source id,
// as served to the retriever for similarity scoring.
type CandidateChunk struct {
	Chunk    domain.Chunk
	SourceID string
}

// DocumentStore persists documents and their ordered chunks.
// Backed by SQLite; an in-memory implementation exists for tests.
type DocumentStore interface {
	// CreateDocument persists a document together with its chunks as one
	// atomic unit: either the whole set persists or none of it does.
	// Returns domain.ErrConflict when the source_id already exists; the
	// storage-level uniqueness constraint is the source of truth, so a
	// concurrent ingest race surfaces as ErrConflict rather than
	// corrupting state.
	CreateDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error

	// GetBySourceID retrieves a document by its caller-supplied source id.
	// Returns domain.ErrNotFound when absent.
	GetBySourceID(ctx context.Context, sourceID string) (*domain.Document, error)

	// GetChunksByDocument retrieves all chunks for a document ordered by
	// ascending index.
	GetChunksByDocument(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// AllChunks returns the full candidate pool: every stored chunk with
	// its embedding and owning source id. Retrieval semantics are a full
	// scan over this pool; no ordering is guaranteed.
	AllChunks(ctx context.Context) ([]CandidateChunk, error)

	// ListDocuments returns all documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument removes a document and cascades to its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// Ping validates the store is reachable without a full round trip.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
