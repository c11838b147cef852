// Package domain contains the core business entities for grounded question
// answering: documents and their embedded chunks, answer results with
// citations, streamed answer events, and the error taxonomy shared across
// the pipeline.
//
// The domain layer has no dependencies on adapters or external services.
package domain
