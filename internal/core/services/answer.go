package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/custodia-labs/grounded/internal/core/domain"
	"github.com/custodia-labs/grounded/internal/core/ports/driven"
	"github.com/custodia-labs/grounded/internal/core/ports/driving"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// Answer assembly defaults.
const (
	DefaultMaxContextChars = 8000
	DefaultPromptVersion   = "v1"
	DefaultPreviewLength   = 160
)

// chunkSeparator joins chunk contents inside the assembled context.
const chunkSeparator = "\n\n---\n\n"

// AnswerConfig tunes prompt assembly and generation.
type AnswerConfig struct {
	// MaxContextChars caps the assembled context length. Chunks that
	// would push past the cap are dropped, never truncated mid-chunk,
	// except that the first chunk is truncated rather than dropped.
	MaxContextChars int

	// PromptVersion selects the answer prompt template.
	PromptVersion string

	// PreviewLength bounds the citation excerpts.
	PreviewLength int

	// Generation is passed through to the LLM on every call.
	Generation driven.GenerateOptions
}

// withDefaults fills zero values with the documented defaults.
func (c AnswerConfig) withDefaults() AnswerConfig {
	if c.MaxContextChars <= 0 {
		c.MaxContextChars = DefaultMaxContextChars
	}
	if c.PromptVersion == "" {
		c.PromptVersion = DefaultPromptVersion
	}
	if c.PreviewLength <= 0 {
		c.PreviewLength = DefaultPreviewLength
	}
	return c
}

// AnswerService answers queries against the ingested corpus: retrieve,
// guard, assemble, generate.
type AnswerService struct {
	embedder  driven.EmbeddingService
	store     driven.DocumentStore
	llm       driven.LLMService
	prompts   driven.PromptStore
	retriever *Retriever
	cfg       AnswerConfig
	logger    *zap.Logger
}

// NewAnswerService creates a new answer service.
func NewAnswerService(
	embedder driven.EmbeddingService,
	store driven.DocumentStore,
	llm driven.LLMService,
	prompts driven.PromptStore,
	retriever *Retriever,
	cfg AnswerConfig,
	logger *zap.Logger,
) *AnswerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnswerService{
		embedder:  embedder,
		store:     store,
		llm:       llm,
		prompts:   prompts,
		retriever: retriever,
		cfg:       cfg.withDefaults(),
		logger:    logger,
	}
}

// Answer retrieves relevant chunks and generates a cited answer. The
// graceful no-answer paths are reported via the result's Outcome;
// returned errors are genuine faults.
func (s *AnswerService) Answer(ctx context.Context, query string) (*domain.QueryResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}

	selected, result, err := s.retrieve(ctx, query)
	if err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}

	prompt, included, err := s.assemblePrompt(query, selected)
	if err != nil {
		return nil, err
	}

	completion, err := s.llm.Generate(ctx, prompt, s.cfg.Generation)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", &domain.GenerationServiceError{Err: err})
	}

	s.logger.Debug("answer generated",
		zap.Int("sources", len(included)),
		zap.Int("completion_tokens", completion.CompletionTokens))

	return &domain.QueryResult{
		Outcome:       domain.OutcomeAnswered,
		Answer:        completion.Text,
		Sources:       s.citations(included),
		Model:         completion.Model,
		PromptVersion: s.cfg.PromptVersion,
		Usage: domain.TokenUsage{
			PromptTokens:     completion.PromptTokens,
			CompletionTokens: completion.CompletionTokens,
		},
	}, nil
}

// AnswerStream is the streaming variant of Answer. The query is
// validated synchronously; everything else happens on the returned
// channel, which carries zero or more token events and exactly one
// terminal done or error event.
func (s *AnswerService) AnswerStream(ctx context.Context, query string) (<-chan domain.StreamEvent, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}

	events := make(chan domain.StreamEvent)
	go s.streamAnswer(ctx, query, events)
	return events, nil
}

// streamAnswer runs the pipeline and emits events. It closes the
// channel after the terminal event, or without one if the context is
// cancelled mid-stream.
func (s *AnswerService) streamAnswer(ctx context.Context, query string, events chan<- domain.StreamEvent) {
	defer close(events)

	emit := func(ev domain.StreamEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	fail := func(code string, err error) {
		s.logger.Debug("stream failed", zap.String("code", code), zap.Error(err))
		emit(domain.StreamEvent{
			Type: domain.StreamEventError,
			Err:  &domain.StreamError{Code: code, Message: err.Error()},
		})
	}

	selected, result, err := s.retrieve(ctx, query)
	if err != nil {
		fail(domain.StreamErrRetrieval, err)
		return
	}
	if result != nil {
		switch result.Outcome {
		case domain.OutcomeEmptyContext:
			fail(domain.StreamErrEmptyContext, errors.New("no ingested content to answer from"))
		case domain.OutcomeNoRelevantContent:
			emit(domain.StreamEvent{
				Type: domain.StreamEventDone,
				Done: &domain.StreamDone{
					GuardrailTriggered: true,
					PromptVersion:      s.cfg.PromptVersion,
				},
			})
		}
		return
	}

	prompt, included, err := s.assemblePrompt(query, selected)
	if err != nil {
		fail(domain.StreamErrGeneration, err)
		return
	}

	deltas, err := s.llm.GenerateStream(ctx, prompt, s.cfg.Generation)
	if err != nil {
		fail(domain.StreamErrGeneration, err)
		return
	}

	tokenCount := 0
	for delta := range deltas {
		switch {
		case delta.Err != nil:
			fail(domain.StreamErrGeneration, delta.Err)
			return
		case delta.Final:
			emit(domain.StreamEvent{
				Type: domain.StreamEventDone,
				Done: &domain.StreamDone{
					TokenCount:    tokenCount,
					SourceCount:   len(included),
					PromptVersion: s.cfg.PromptVersion,
				},
			})
			return
		case delta.Token != "":
			tokenCount++
			if !emit(domain.StreamEvent{Type: domain.StreamEventToken, Token: delta.Token}) {
				return
			}
		}
	}

	// Provider closed the stream without a final delta.
	if ctx.Err() == nil {
		emit(domain.StreamEvent{
			Type: domain.StreamEventDone,
			Done: &domain.StreamDone{
				TokenCount:    tokenCount,
				SourceCount:   len(included),
				PromptVersion: s.cfg.PromptVersion,
			},
		})
	}
}

// retrieve embeds the query and selects chunks. When a graceful
// no-answer outcome applies it returns a non-nil result instead of
// selected chunks.
func (s *AnswerService) retrieve(ctx context.Context, query string) ([]RetrievedChunk, *domain.QueryResult, error) {
	qvec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingService) {
			return nil, nil, fmt.Errorf("embedding query: %w", err)
		}
		return nil, nil, fmt.Errorf("embedding query: %w",
			&domain.EmbeddingServiceError{Attempts: 1, Err: err})
	}

	pool, err := s.store.AllChunks(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading candidate chunks: %w", err)
	}
	if len(pool) == 0 {
		s.logger.Debug("empty corpus")
		return nil, &domain.QueryResult{Outcome: domain.OutcomeEmptyContext}, nil
	}

	selected, err := s.retriever.Retrieve(qvec, pool)
	if err != nil {
		var lowSim *domain.LowSimilarityError
		if errors.As(err, &lowSim) {
			s.logger.Debug("similarity guardrail triggered",
				zap.Float64("max_similarity", lowSim.MaxSimilarity),
				zap.Float64("threshold", lowSim.Threshold))
			return nil, &domain.QueryResult{
				Outcome:       domain.OutcomeNoRelevantContent,
				Threshold:     lowSim.Threshold,
				MaxSimilarity: lowSim.MaxSimilarity,
			}, nil
		}
		if errors.Is(err, domain.ErrEmptyContext) {
			return nil, &domain.QueryResult{Outcome: domain.OutcomeEmptyContext}, nil
		}
		return nil, nil, fmt.Errorf("retrieving chunks: %w", err)
	}

	return selected, nil, nil
}

// assemblePrompt builds the generation prompt from the selected chunks,
// bounded by MaxContextChars, and returns the chunks actually included.
func (s *AnswerService) assemblePrompt(query string, selected []RetrievedChunk) (string, []RetrievedChunk, error) {
	var b strings.Builder
	var included []RetrievedChunk
	for _, chunk := range selected {
		addition := len(chunk.Chunk.Content)
		if len(included) > 0 {
			addition += len(chunkSeparator)
		}
		if b.Len()+addition > s.cfg.MaxContextChars {
			break
		}
		if len(included) > 0 {
			b.WriteString(chunkSeparator)
		}
		b.WriteString(chunk.Chunk.Content)
		included = append(included, chunk)
	}
	// A single oversized chunk is truncated rather than dropped so the
	// prompt never goes out empty.
	if len(included) == 0 {
		content := selected[0].Chunk.Content
		if runes := []rune(content); len(runes) > s.cfg.MaxContextChars {
			content = string(runes[:s.cfg.MaxContextChars])
		}
		b.WriteString(content)
		included = append(included, selected[0])
	}

	template, err := s.prompts.Load(driven.AnswerPromptName(s.cfg.PromptVersion))
	if err != nil {
		return "", nil, fmt.Errorf("loading answer prompt: %w", err)
	}

	return fmt.Sprintf(template, b.String(), query), included, nil
}

// citations builds the source list for the included chunks.
func (s *AnswerService) citations(included []RetrievedChunk) []domain.Source {
	sources := make([]domain.Source, len(included))
	for i, chunk := range included {
		preview := chunk.Chunk.Content
		if runes := []rune(preview); len(runes) > s.cfg.PreviewLength {
			preview = string(runes[:s.cfg.PreviewLength])
		}
		sources[i] = domain.Source{
			SourceID:       chunk.SourceID,
			Score:          chunk.Score,
			ContentPreview: preview,
		}
	}
	return sources
}
