// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants like Claude ask grounded questions against the
// ingested corpus and manage its documents.
package mcp

import "errors"

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("mcp: answer service is required")
