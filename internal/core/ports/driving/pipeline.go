// Package driving provides interfaces for application entry points (primary/inbound ports).
package driving

import (
	"context"

	"github.com/custodia-labs/grounded/internal/core/domain"
)

// IngestService accepts raw text and persists it as an embedded document.
type IngestService interface {
	// Ingest normalises, chunks, embeds and persists the text under the
	// given source id. Returns domain.ErrConflict when the source id is
	// already ingested, domain.ErrInvalidInput for empty input and
	// domain.ErrNoChunks when the text produces no chunks.
	Ingest(ctx context.Context, sourceID, text string, metadata map[string]any) (*domain.IngestResult, error)

	// DeleteBySourceID removes a previously ingested document and its
	// chunks. Returns domain.ErrNotFound when the source id is unknown.
	DeleteBySourceID(ctx context.Context, sourceID string) error
}

// AnswerService answers natural-language queries against the ingested corpus.
type AnswerService interface {
	// Answer retrieves relevant chunks and generates a cited answer.
	// The "no relevant content" and "empty corpus" paths are reported via
	// the result's Outcome, not as errors; errors are genuine faults.
	Answer(ctx context.Context, query string) (*domain.QueryResult, error)

	// AnswerStream is the streaming variant. It validates the query
	// synchronously and then emits zero or more token events followed by
	// exactly one done or error event on the returned channel, which is
	// closed after the terminal event. Cancelling the context aborts
	// generation promptly.
	AnswerStream(ctx context.Context, query string) (<-chan domain.StreamEvent, error)
}

// HealthService aggregates dependency reachability.
type HealthService interface {
	// Check pings the embedder, store and generator without performing a
	// full round trip and reports degraded status if any is unreachable.
	Check(ctx context.Context) domain.Health
}
