package domain

// Outcome tags the result of an answer request. The "no relevant content"
// path is a defined outcome rather than an error so callers never use
// exceptions for control flow.
type Outcome string

const (
	// OutcomeAnswered means an answer was generated from retrieved context.
	OutcomeAnswered Outcome = "answered"

	// OutcomeNoRelevantContent means the similarity guardrail triggered:
	// the corpus holds nothing similar enough to the query.
	OutcomeNoRelevantContent Outcome = "no_relevant_content"

	// OutcomeEmptyContext means retrieval yielded nothing usable at all,
	// typically because the corpus is empty.
	OutcomeEmptyContext Outcome = "empty_context"
)

// Source is a citation for one chunk that grounded the answer.
type Source struct {
	// SourceID is the caller-supplied identifier of the owning document.
	SourceID string `json:"source_id"`

	// Score is the original query similarity of the cited chunk, not the
	// re-ranking utility score.
	Score float64 `json:"score"`

	// ContentPreview is a short excerpt of the cited chunk.
	ContentPreview string `json:"content_preview,omitempty"`
}

// TokenUsage is the provider token accounting for one generation call.
// When the provider reports no usage the values are estimates.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// QueryResult is the tagged result of one answer request.
type QueryResult struct {
	// Outcome distinguishes answered from the graceful no-answer paths.
	Outcome Outcome `json:"outcome"`

	// Answer is the generated text. Empty unless Outcome is answered.
	Answer string `json:"answer,omitempty"`

	// Sources are the citations in re-ranked order.
	Sources []Source `json:"sources,omitempty"`

	// Model is the generative model that produced the answer.
	Model string `json:"model,omitempty"`

	// PromptVersion identifies the prompt template used.
	PromptVersion string `json:"prompt_version,omitempty"`

	// Usage is the token accounting for the generation call.
	Usage TokenUsage `json:"usage"`

	// Threshold and MaxSimilarity carry guardrail diagnostics when
	// Outcome is no_relevant_content.
	Threshold     float64 `json:"threshold,omitempty"`
	MaxSimilarity float64 `json:"max_similarity,omitempty"`
}

// IngestResult summarises a completed ingest call.
type IngestResult struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunks"`
}
