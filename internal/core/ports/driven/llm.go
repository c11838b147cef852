// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService produces answer text from an assembled prompt.
//
// Implementations may include:
//   - OpenAI (GPT-4o family)
//   - Ollama (local models)
type LLMService interface {
	// Generate produces a completion for the prompt and returns it with
	// token accounting. Provider failures are returned as-is; the answer
	// service wraps them as GenerationServiceError.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Completion, error)

	// GenerateStream produces a completion incrementally. The returned
	// channel yields deltas in order and is closed after the final delta
	// or an error delta. Cancelling the context aborts the in-flight
	// provider call and closes the channel promptly.
	GenerateStream(ctx context.Context, prompt string, opts GenerateOptions) (<-chan StreamDelta, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test
	// request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// Completion is the result of one generation call.
type Completion struct {
	// Text is the generated answer text.
	Text string

	// PromptTokens and CompletionTokens are provider-reported usage, or
	// estimates when the provider reports none.
	PromptTokens     int
	CompletionTokens int

	// Model is the model that produced the completion.
	Model string
}

// StreamDelta is one increment of a streamed completion.
type StreamDelta struct {
	// Token is the incremental text. Empty on the final delta.
	Token string

	// Err terminates the stream when non-nil.
	Err error

	// Final marks the last delta of a successful stream. Usage, when the
	// provider reports it, rides on the final delta.
	Final            bool
	PromptTokens     int
	CompletionTokens int
}
