// Package driven defines the outbound ports of the pipeline: the
// interfaces infrastructure adapters implement (embedding and generation
// providers, document storage, prompt templates, text preparation).
//
// Core services depend only on these interfaces, never on adapters.
package driven
