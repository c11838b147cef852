package services

import (
	"math"
	"sort"

	"github.com/custodia-labs/grounded/internal/core/domain"
	"github.com/custodia-labs/grounded/internal/core/ports/driven"
)

// Retrieval defaults. Tunable via RetrieverConfig; validated by the
// retriever property tests rather than tied to any provider.
const (
	DefaultTopN                = 20
	DefaultFinalK              = 5
	DefaultSimilarityThreshold = 0.75
	DefaultLambda              = 0.5
)

// RetrieverConfig tunes candidate selection and re-ranking.
type RetrieverConfig struct {
	// TopN is the candidate pool size taken by descending similarity
	// before re-ranking.
	TopN int

	// FinalK is the number of chunks selected by re-ranking.
	FinalK int

	// SimilarityThreshold is the guardrail: when the best candidate
	// similarity is below it, retrieval reports no relevant content.
	SimilarityThreshold float64

	// Lambda in [0,1] trades relevance against redundancy in MMR
	// re-ranking. Lambda 1 degenerates to plain top-k by score.
	Lambda float64
}

// withDefaults fills zero values with the documented defaults.
func (c RetrieverConfig) withDefaults() RetrieverConfig {
	if c.TopN <= 0 {
		c.TopN = DefaultTopN
	}
	if c.FinalK <= 0 {
		c.FinalK = DefaultFinalK
	}
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if c.Lambda == 0 {
		c.Lambda = DefaultLambda
	}
	return c
}

// RetrievedChunk is one selected chunk with its original query similarity.
// Score is the cosine similarity to the query, not the MMR utility, so it
// remains meaningful for citation display.
type RetrievedChunk struct {
	Chunk    domain.Chunk
	SourceID string
	Score    float64
}

// Retriever selects the most relevant, least redundant chunks for a query
// vector from a candidate pool.
type Retriever struct {
	cfg RetrieverConfig
}

// NewRetriever creates a retriever; zero config fields take the defaults.
func NewRetriever(cfg RetrieverConfig) *Retriever {
	return &Retriever{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (r *Retriever) Config() RetrieverConfig {
	return r.cfg
}

// Retrieve scores every candidate by cosine similarity, applies the
// guardrail and re-ranks the top candidates with maximal marginal
// relevance. Returns domain.ErrEmptyContext for an empty pool and a
// *domain.LowSimilarityError when the guardrail triggers.
func (r *Retriever) Retrieve(query []float32, pool []driven.CandidateChunk) ([]RetrievedChunk, error) {
	if len(pool) == 0 {
		return nil, domain.ErrEmptyContext
	}

	scored := make([]RetrievedChunk, 0, len(pool))
	for _, cand := range pool {
		scored = append(scored, RetrievedChunk{
			Chunk:    cand.Chunk,
			SourceID: cand.SourceID,
			Score:    CosineSimilarity(query, cand.Chunk.Embedding),
		})
	}

	// Descending score; equal scores break ties by ascending chunk index,
	// then document id, so output is deterministic for fixed input.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Chunk.Index != scored[j].Chunk.Index {
			return scored[i].Chunk.Index < scored[j].Chunk.Index
		}
		return scored[i].Chunk.DocumentID < scored[j].Chunk.DocumentID
	})

	if len(scored) > r.cfg.TopN {
		scored = scored[:r.cfg.TopN]
	}

	if best := scored[0].Score; best < r.cfg.SimilarityThreshold {
		return nil, &domain.LowSimilarityError{
			Threshold:     r.cfg.SimilarityThreshold,
			MaxSimilarity: best,
		}
	}

	return r.rerank(scored), nil
}

// rerank applies maximal marginal relevance: starting from the best-scoring
// chunk, it iteratively selects the remaining chunk maximising
//
//	lambda*sim(query, chunk) - (1-lambda)*max sim(chunk, selected)
//
// until FinalK chunks are selected or the pool is exhausted.
func (r *Retriever) rerank(candidates []RetrievedChunk) []RetrievedChunk {
	k := r.cfg.FinalK
	if k > len(candidates) {
		k = len(candidates)
	}

	selected := make([]RetrievedChunk, 0, k)
	selected = append(selected, candidates[0])
	remaining := append([]RetrievedChunk(nil), candidates[1:]...)

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := -1
		bestUtility := math.Inf(-1)
		for i, cand := range remaining {
			redundancy := math.Inf(-1)
			for _, sel := range selected {
				if sim := CosineSimilarity(cand.Chunk.Embedding, sel.Chunk.Embedding); sim > redundancy {
					redundancy = sim
				}
			}
			utility := r.cfg.Lambda*cand.Score - (1-r.cfg.Lambda)*redundancy
			if utility > bestUtility ||
				(utility == bestUtility && bestIdx >= 0 && cand.Chunk.Index < remaining[bestIdx].Chunk.Index) {
				bestUtility = utility
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

// CosineSimilarity returns the normalised dot product of two vectors.
// Mismatched or zero-length vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
