package mcp

import (
	"github.com/custodia-labs/grounded/internal/core/ports/driven"
	"github.com/custodia-labs/grounded/internal/core/ports/driving"
)

// Ports aggregates all port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Answer answers questions against the corpus.
	Answer driving.AnswerService

	// Ingest adds and removes documents.
	Ingest driving.IngestService

	// Store backs the documents resource listing.
	Store driven.DocumentStore
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	// Ingest and Store are optional; their tools degrade gracefully
	return nil
}
