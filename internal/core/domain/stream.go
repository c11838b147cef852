package domain

// StreamEventType identifies the kind of a streamed answer event.
type StreamEventType string

const (
	// StreamEventToken carries an incremental piece of answer text.
	StreamEventToken StreamEventType = "token"

	// StreamEventDone terminates a successful stream.
	StreamEventDone StreamEventType = "done"

	// StreamEventError terminates a failed stream.
	StreamEventError StreamEventType = "error"
)

// Stream error codes carried by the terminal error event.
const (
	StreamErrEmptyContext = "empty_context"
	StreamErrGeneration   = "generation_failed"
	StreamErrRetrieval    = "retrieval_failed"
)

// StreamEvent is one event in a streamed answer. A stream is zero or more
// token events followed by exactly one done or error event; nothing is
// emitted after the terminal event.
type StreamEvent struct {
	Type StreamEventType `json:"type"`

	// Token is set on token events.
	Token string `json:"token,omitempty"`

	// Done is set on the done event.
	Done *StreamDone `json:"done,omitempty"`

	// Err is set on the error event.
	Err *StreamError `json:"error,omitempty"`
}

// StreamDone summarises a completed stream.
type StreamDone struct {
	// TokenCount is the number of token events emitted.
	TokenCount int `json:"token_count"`

	// SourceCount is the number of chunks that grounded the answer.
	SourceCount int `json:"source_count"`

	// GuardrailTriggered is true when the stream ended without an answer
	// because no retrieved content was similar enough.
	GuardrailTriggered bool `json:"guardrail_triggered,omitempty"`

	// PromptVersion identifies the prompt template used.
	PromptVersion string `json:"prompt_version"`
}

// StreamError carries the terminal failure of a stream.
type StreamError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
