package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/custodia-labs/grounded/internal/core/domain"
	"github.com/custodia-labs/grounded/internal/core/ports/driven"
	"github.com/custodia-labs/grounded/internal/core/ports/driving"
)

// Ensure HealthService implements the interface.
var _ driving.HealthService = (*HealthService)(nil)

// pingTimeout bounds each individual dependency check.
const pingTimeout = 5 * time.Second

// HealthService reports dependency reachability without running
// inference or a full pipeline round trip.
type HealthService struct {
	embedder driven.EmbeddingService
	store    driven.DocumentStore
	llm      driven.LLMService
	logger   *zap.Logger
}

// NewHealthService creates a new health service.
func NewHealthService(
	embedder driven.EmbeddingService,
	store driven.DocumentStore,
	llm driven.LLMService,
	logger *zap.Logger,
) *HealthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthService{
		embedder: embedder,
		store:    store,
		llm:      llm,
		logger:   logger,
	}
}

// Check pings every dependency and aggregates the results. Status is
// degraded when any component is unreachable.
func (s *HealthService) Check(ctx context.Context) domain.Health {
	health := domain.Health{
		Status:    domain.HealthOK,
		Embedder:  s.ping(ctx, "embedder", s.embedder.Ping),
		Store:     s.ping(ctx, "store", s.store.Ping),
		Generator: s.ping(ctx, "generator", s.llm.Ping),
	}

	if !health.Embedder.Reachable || !health.Store.Reachable || !health.Generator.Reachable {
		health.Status = domain.HealthDegraded
	}
	return health
}

// ping runs one bounded dependency check.
func (s *HealthService) ping(ctx context.Context, name string, fn func(context.Context) error) domain.ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		s.logger.Debug("dependency unreachable", zap.String("component", name), zap.Error(err))
		return domain.ComponentHealth{Reachable: false, Error: err.Error()}
	}
	return domain.ComponentHealth{Reachable: true}
}
