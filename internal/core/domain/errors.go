package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a source_id is already ingested.
	// Callers must choose a new source_id or treat the conflict as an
	// idempotent no-op per their own policy.
	ErrConflict = errors.New("source already exists")

	// ErrInvalidInput indicates malformed or empty input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoChunks indicates a document produced zero chunks after
	// normalisation, which is an ingestion validation failure.
	ErrNoChunks = errors.New("document must produce at least one chunk")

	// ErrLowSimilarity indicates the retrieval guardrail triggered: no
	// candidate was similar enough to ground an answer. This is a defined
	// "no answer available" outcome, not a fault.
	ErrLowSimilarity = errors.New("no sufficiently similar content")

	// ErrEmptyContext indicates retrieval succeeded structurally but
	// yielded nothing usable to ground an answer (e.g. an empty corpus).
	ErrEmptyContext = errors.New("no context available")

	// ErrEmbeddingService indicates the embedding provider failed after
	// the internal retry budget was exhausted.
	ErrEmbeddingService = errors.New("embedding service unavailable")

	// ErrGenerationService indicates the generative model provider failed.
	// Generation is never retried internally, partial cost has already
	// been incurred.
	ErrGenerationService = errors.New("generation service unavailable")
)

// LowSimilarityError carries guardrail diagnostics: the configured
// threshold and the best similarity actually observed.
type LowSimilarityError struct {
	Threshold     float64
	MaxSimilarity float64
}

func (e *LowSimilarityError) Error() string {
	return fmt.Sprintf("best similarity %.4f below threshold %.4f", e.MaxSimilarity, e.Threshold)
}

// Is reports ErrLowSimilarity so callers can match with errors.Is.
func (e *LowSimilarityError) Is(target error) bool {
	return target == ErrLowSimilarity
}

// EmbeddingServiceError wraps a provider failure after retries.
type EmbeddingServiceError struct {
	Attempts int
	Err      error
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("embedding failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Err }

// Is reports ErrEmbeddingService so callers can match with errors.Is.
func (e *EmbeddingServiceError) Is(target error) bool {
	return target == ErrEmbeddingService
}

// GenerationServiceError wraps a generative model provider failure.
type GenerationServiceError struct {
	Err error
}

func (e *GenerationServiceError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationServiceError) Unwrap() error { return e.Err }

// Is reports ErrGenerationService so callers can match with errors.Is.
func (e *GenerationServiceError) Is(target error) bool {
	return target == ErrGenerationService
}
