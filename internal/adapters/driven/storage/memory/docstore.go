// Package memory provides in-memory implementations of driven port interfaces.
// Useful for tests and ephemeral runs where persistence is not needed.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/grounded/internal/core/domain"
	"github.com/custodia-labs/grounded/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document // keyed by document ID
	bySource  map[string]string          // source ID -> document ID
	chunks    map[string][]domain.Chunk  // keyed by document ID
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		bySource:  make(map[string]string),
		chunks:    make(map[string][]domain.Chunk),
	}
}

// CreateDocument stores a document and its chunks atomically.
// Returns domain.ErrConflict if the source ID is already present.
func (s *DocumentStore) CreateDocument(_ context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bySource[doc.SourceID]; exists {
		return domain.ErrConflict
	}

	s.documents[doc.ID] = *doc
	s.bySource[doc.SourceID] = doc.ID

	stored := make([]domain.Chunk, len(chunks))
	copy(stored, chunks)
	sort.Slice(stored, func(i, j int) bool { return stored[i].Index < stored[j].Index })
	s.chunks[doc.ID] = stored
	return nil
}

// GetBySourceID retrieves a document by its source identifier.
func (s *DocumentStore) GetBySourceID(_ context.Context, sourceID string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySource[sourceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc := s.documents[id]
	return &doc, nil
}

// GetChunksByDocument returns a document's chunks in index order.
func (s *DocumentStore) GetChunksByDocument(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks, ok := s.chunks[documentID]
	if !ok {
		return nil, nil
	}
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	return out, nil
}

// AllChunks returns every stored chunk joined with its document's
// source identifier.
func (s *DocumentStore) AllChunks(_ context.Context) ([]driven.CandidateChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []driven.CandidateChunk
	for docID, chunks := range s.chunks {
		sourceID := s.documents[docID].SourceID
		for _, chunk := range chunks {
			candidates = append(candidates, driven.CandidateChunk{Chunk: chunk, SourceID: sourceID})
		}
	}
	// Stable order for deterministic scans
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].SourceID != candidates[j].SourceID {
			return candidates[i].SourceID < candidates[j].SourceID
		}
		return candidates[i].Chunk.Index < candidates[j].Chunk.Index
	})
	return candidates, nil
}

// ListDocuments returns all documents ordered by creation time.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].SourceID < docs[j].SourceID
	})
	return docs, nil
}

// DeleteDocument removes a document and all of its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[documentID]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, documentID)
	delete(s.bySource, doc.SourceID)
	delete(s.chunks, documentID)
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *DocumentStore) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *DocumentStore) Close() error {
	return nil
}
