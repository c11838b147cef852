package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Document represents one ingested text with its retrieval metadata.
// Documents are immutable after ingest: re-embedding content requires
// deleting the document and ingesting it again.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SourceID is the caller-supplied identifier. It is unique across the
	// whole corpus and is used for conflict detection and citations.
	SourceID string

	// Metadata contains arbitrary caller-supplied key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// Chunk represents a retrievable unit within a document.
// Documents are split into chunks which are embedded independently.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Index is the 0-based ordinal position within the document.
	// Values for one document are contiguous with no gaps and define
	// citation order.
	Index int

	// Content is the text content of this chunk.
	Content string

	// ContentHash is a deterministic digest of Content, used for change
	// detection and within-document deduplication.
	ContentHash string

	// Embedding is the vector representation, produced once at ingest
	// time and never mutated afterwards.
	Embedding []float32

	// CreatedAt is when the chunk was persisted.
	CreatedAt time.Time
}

// HashContent returns the canonical content hash for chunk text.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
