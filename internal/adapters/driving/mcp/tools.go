package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/grounded/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query string `json:"query" jsonschema:"the question to answer from the ingested documents"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Outcome string         `json:"outcome"`
	Answer  string         `json:"answer,omitempty"`
	Sources []SourceOutput `json:"sources,omitempty"`

	// Guardrail diagnostics, set when outcome is no_relevant_content.
	Threshold     float64 `json:"threshold,omitempty"`
	MaxSimilarity float64 `json:"max_similarity,omitempty"`
}

// SourceOutput represents a single answer citation.
type SourceOutput struct {
	SourceID string  `json:"source_id"`
	Score    float64 `json:"score"`
	Preview  string  `json:"preview,omitempty"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	SourceID string `json:"source_id" jsonschema:"unique identifier for the document"`
	Text     string `json:"text" jsonschema:"the raw document text to ingest"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunks"`
}

// DeleteInput is the input schema for the delete_document tool.
type DeleteInput struct {
	SourceID string `json:"source_id" jsonschema:"source identifier of the document to delete"`
}

// DeleteOutput is the output schema for the delete_document tool.
type DeleteOutput struct {
	Deleted bool `json:"deleted"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using only the ingested documents, with citations",
	}, s.handleAsk)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest",
			Description: "Ingest a text document into the corpus",
		}, s.handleIngest)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "delete_document",
			Description: "Delete an ingested document by its source id",
		}, s.handleDelete)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	result, err := s.ports.Answer.Answer(ctx, input.Query)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Outcome:       string(result.Outcome),
		Answer:        result.Answer,
		Threshold:     result.Threshold,
		MaxSimilarity: result.MaxSimilarity,
	}
	for _, src := range result.Sources {
		output.Sources = append(output.Sources, SourceOutput{
			SourceID: src.SourceID,
			Score:    src.Score,
			Preview:  src.ContentPreview,
		})
	}

	return nil, output, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	metadata := map[string]any{"origin": "mcp"}

	result, err := s.ports.Ingest.Ingest(ctx, input.SourceID, input.Text, metadata)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		DocumentID: result.DocumentID,
		ChunkCount: result.ChunkCount,
	}, nil
}

// handleDelete handles the delete_document tool invocation.
func (s *Server) handleDelete(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteInput,
) (*mcp.CallToolResult, DeleteOutput, error) {
	err := s.ports.Ingest.DeleteBySourceID(ctx, input.SourceID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, DeleteOutput{Deleted: false}, nil
	}
	if err != nil {
		return nil, DeleteOutput{}, err
	}
	return nil, DeleteOutput{Deleted: true}, nil
}
