package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/grounded/internal/core/domain"
	"github.com/custodia-labs/grounded/internal/core/ports/driving"
)

type stubAnswerService struct{}

var _ driving.AnswerService = (*stubAnswerService)(nil)

func (s *stubAnswerService) Answer(_ context.Context, _ string) (*domain.QueryResult, error) {
	return &domain.QueryResult{Outcome: domain.OutcomeAnswered}, nil
}

func (s *stubAnswerService) AnswerStream(_ context.Context, _ string) (<-chan domain.StreamEvent, error) {
	events := make(chan domain.StreamEvent)
	close(events)
	return events, nil
}

func TestPortsValidate(t *testing.T) {
	ports := &Ports{}
	assert.ErrorIs(t, ports.Validate(), ErrMissingAnswerService)

	// Ingest and Store stay optional
	ports.Answer = &stubAnswerService{}
	assert.NoError(t, ports.Validate())
}
