// Package resilient wraps an embedding provider with the behaviour
// production ingest needs: deduplication of identical texts within a
// batch, a read-through cache keyed by content hash, proactive rate
// limiting and bounded retries with exponential backoff.
//
// The cache is purely advisory: a miss never changes correctness, only
// latency and provider cost.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/grounded/internal/core/domain"
	"github.com/custodia-labs/grounded/internal/core/ports/driven"
)

// Ensure Service implements the interface.
var _ driven.EmbeddingService = (*Service)(nil)

// Default configuration values.
const (
	DefaultMaxAttempts       = 3
	DefaultInitialBackoff    = 500 * time.Millisecond
	DefaultMaxBackoff        = 8 * time.Second
	DefaultRequestsPerSecond = 2.0
	DefaultBurst             = 1
	DefaultCallTimeout       = 60 * time.Second
)

// Config holds retry and throttling configuration.
type Config struct {
	// MaxAttempts bounds retries per batch (default 3).
	MaxAttempts int

	// InitialBackoff is the first retry delay; it doubles per attempt up
	// to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// RequestsPerSecond and Burst configure the proactive token bucket.
	RequestsPerSecond float64
	Burst             int

	// CallTimeout bounds each individual provider call.
	CallTimeout time.Duration
}

// Service decorates an EmbeddingService with dedup, caching and retry.
type Service struct {
	inner   driven.EmbeddingService
	cfg     Config
	limiter *rate.Limiter
	logger  *zap.Logger

	mu    sync.RWMutex
	cache map[string][]float32 // content hash -> embedding
}

// New creates a resilient embedding service wrapping inner.
func New(inner driven.EmbeddingService, cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		inner:   inner,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:  logger,
		cache:   make(map[string][]float32),
	}
}

// Embed generates a vector embedding for the given text.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch deduplicates the texts by content hash, resolves what it can
// from the cache and sends the remaining unique texts to the provider in
// one call, retrying transient failures with exponential backoff. The
// result is rehydrated so identical inputs get identical vectors without
// double billing.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	hashes := make([]string, len(texts))
	for i, t := range texts {
		hashes[i] = domain.HashContent(t)
	}

	// Resolve cache hits and collect the unique misses in first-seen order.
	resolved := make(map[string][]float32, len(texts))
	var missTexts []string
	var missHashes []string

	s.mu.RLock()
	for i, h := range hashes {
		if _, ok := resolved[h]; ok {
			continue
		}
		if vec, ok := s.cache[h]; ok {
			resolved[h] = vec
			continue
		}
		resolved[h] = nil
		missTexts = append(missTexts, texts[i])
		missHashes = append(missHashes, h)
	}
	s.mu.RUnlock()

	if len(missTexts) > 0 {
		vectors, err := s.embedWithRetry(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(missTexts) {
			return nil, &domain.EmbeddingServiceError{
				Attempts: 1,
				Err:      fmt.Errorf("provider returned %d vectors for %d texts", len(vectors), len(missTexts)),
			}
		}

		s.mu.Lock()
		for i, h := range missHashes {
			resolved[h] = vectors[i]
			s.cache[h] = vectors[i]
		}
		s.mu.Unlock()
	}

	out := make([][]float32, len(texts))
	for i, h := range hashes {
		out[i] = resolved[h]
	}
	return out, nil
}

// embedWithRetry calls the provider with bounded attempts and exponential
// backoff. Context cancellation is never retried.
func (s *Service) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	backoff := s.cfg.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, &domain.EmbeddingServiceError{Attempts: attempt, Err: err}
		}

		callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
		vectors, err := s.inner.EmbedBatch(callCtx, texts)
		cancel()
		if err == nil {
			return vectors, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, &domain.EmbeddingServiceError{Attempts: attempt, Err: ctx.Err()}
		}
		if !retryable(err) {
			return nil, &domain.EmbeddingServiceError{Attempts: attempt, Err: err}
		}

		s.logger.Warn("embedding attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("batch_size", len(texts)),
			zap.Error(err))

		if attempt == s.cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, &domain.EmbeddingServiceError{Attempts: attempt, Err: ctx.Err()}
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > s.cfg.MaxBackoff {
			backoff = s.cfg.MaxBackoff
		}
	}

	return nil, &domain.EmbeddingServiceError{Attempts: s.cfg.MaxAttempts, Err: lastErr}
}

// Dimensions returns the embedding vector size.
func (s *Service) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the name of the embedding model being used.
func (s *Service) ModelName() string {
	return s.inner.ModelName()
}

// Ping validates the underlying provider is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close releases resources.
func (s *Service) Close() error {
	return s.inner.Close()
}

// CacheSize returns the number of cached embeddings, for diagnostics.
func (s *Service) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// retryable reports whether an error is worth retrying. Kept for clarity:
// everything except context cancellation is treated as transient here,
// because the provider adapters already fold HTTP status into errors.
func retryable(err error) bool {
	return !errors.Is(err, context.Canceled)
}
