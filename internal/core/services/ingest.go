package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/custodia-labs/grounded/internal/core/domain"
	"github.com/custodia-labs/grounded/internal/core/ports/driven"
	"github.com/custodia-labs/grounded/internal/core/ports/driving"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService turns raw text into an embedded, persisted document.
type IngestService struct {
	normaliser driven.TextNormaliser
	chunker    driven.Chunker
	embedder   driven.EmbeddingService
	store      driven.DocumentStore
	logger     *zap.Logger
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	normaliser driven.TextNormaliser,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	store driven.DocumentStore,
	logger *zap.Logger,
) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{
		normaliser: normaliser,
		chunker:    chunker,
		embedder:   embedder,
		store:      store,
		logger:     logger,
	}
}

// Ingest normalises, chunks, embeds and persists the text under the
// given source id. The whole document is persisted in one transaction;
// an embedding failure leaves nothing behind.
func (s *IngestService) Ingest(ctx context.Context, sourceID, text string, metadata map[string]any) (*domain.IngestResult, error) {
	sourceID = strings.TrimSpace(sourceID)
	if sourceID == "" {
		return nil, fmt.Errorf("%w: source id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrInvalidInput)
	}

	// Fail fast on duplicates before paying for embeddings. The store
	// still enforces uniqueness transactionally.
	if _, err := s.store.GetBySourceID(ctx, sourceID); err == nil {
		return nil, fmt.Errorf("source %q: %w", sourceID, domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("checking source %q: %w", sourceID, err)
	}

	cleaned := s.normaliser.Clean(text)
	pieces := s.chunker.Split(cleaned)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("source %q: %w", sourceID, domain.ErrNoChunks)
	}
	s.logger.Debug("text chunked",
		zap.String("source_id", sourceID),
		zap.Int("chunks", len(pieces)))

	// Drop repeated content before embedding and reassign indices so
	// they stay contiguous.
	type pending struct {
		content string
		hash    string
	}
	seen := make(map[string]struct{}, len(pieces))
	unique := make([]pending, 0, len(pieces))
	for _, piece := range pieces {
		hash := domain.HashContent(piece.Content)
		if _, dup := seen[hash]; dup {
			continue
		}
		seen[hash] = struct{}{}
		unique = append(unique, pending{content: piece.Content, hash: hash})
	}
	if dropped := len(pieces) - len(unique); dropped > 0 {
		s.logger.Debug("duplicate chunks dropped",
			zap.String("source_id", sourceID),
			zap.Int("dropped", dropped))
	}

	texts := make([]string, len(unique))
	for i, p := range unique {
		texts[i] = p.content
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingService) {
			return nil, fmt.Errorf("embedding source %q: %w", sourceID, err)
		}
		return nil, fmt.Errorf("embedding source %q: %w", sourceID,
			&domain.EmbeddingServiceError{Attempts: 1, Err: err})
	}
	if len(embeddings) != len(unique) {
		return nil, fmt.Errorf("embedding source %q: %w", sourceID,
			&domain.EmbeddingServiceError{Attempts: 1,
				Err: fmt.Errorf("%d embeddings for %d chunks", len(embeddings), len(unique))})
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:        uuid.NewString(),
		SourceID:  sourceID,
		Metadata:  metadata,
		CreatedAt: now,
	}
	chunks := make([]domain.Chunk, len(unique))
	for i, p := range unique {
		chunks[i] = domain.Chunk{
			ID:          uuid.NewString(),
			DocumentID:  doc.ID,
			Index:       i,
			Content:     p.content,
			ContentHash: p.hash,
			Embedding:   embeddings[i],
			CreatedAt:   now,
		}
	}

	if err := s.store.CreateDocument(ctx, doc, chunks); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("source %q: %w", sourceID, domain.ErrConflict)
		}
		return nil, fmt.Errorf("persisting source %q: %w", sourceID, err)
	}

	s.logger.Info("document ingested",
		zap.String("source_id", sourceID),
		zap.String("document_id", doc.ID),
		zap.Int("chunks", len(chunks)))

	return &domain.IngestResult{
		DocumentID: doc.ID,
		ChunkCount: len(chunks),
	}, nil
}

// DeleteBySourceID removes a previously ingested document and its chunks.
func (s *IngestService) DeleteBySourceID(ctx context.Context, sourceID string) error {
	sourceID = strings.TrimSpace(sourceID)
	if sourceID == "" {
		return fmt.Errorf("%w: source id is required", domain.ErrInvalidInput)
	}

	doc, err := s.store.GetBySourceID(ctx, sourceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("source %q: %w", sourceID, domain.ErrNotFound)
		}
		return fmt.Errorf("looking up source %q: %w", sourceID, err)
	}

	if err := s.store.DeleteDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("deleting source %q: %w", sourceID, err)
	}

	s.logger.Info("document deleted",
		zap.String("source_id", sourceID),
		zap.String("document_id", doc.ID))
	return nil
}
