package retrieval

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/sandevgo/ragmemory/internal/core"
	"github.com/sandevgo/ragmemory/internal/metrics"
	"github.com/sandevgo/ragmemory/pkg/log"
)

const (
	tierExternal  = "external"
	tierEmbedding = "embedding"
	tierIdentity  = "identity"
)

// Cascade reorders recall candidates. It tries the external cross-encoder,
// then cosine similarity over fresh embeddings, then keeps recall order.
type Cascade struct {
	reranker core.Reranker
	embedder core.Embedder
}

func NewCascade(reranker core.Reranker, embedder core.Embedder) *Cascade {
	return &Cascade{reranker: reranker, embedder: embedder}
}

// Rerank returns at most topN candidates. Scores are left untouched.
func (c *Cascade) Rerank(ctx context.Context, query string, candidates []core.SearchHit, topN int) []core.SearchHit {
	if len(candidates) == 0 || topN <= 0 {
		return []core.SearchHit{}
	}
	logger := log.FromCtx(ctx)

	if order, ok := c.external(ctx, query, candidates); ok {
		metrics.RerankTier.WithLabelValues(tierExternal).Inc()
		logger.Debug().Int("candidates", len(candidates)).Msg("reranked by external reranker")
		return apply(candidates, order, topN)
	}

	if order, ok := c.byEmbedding(ctx, query, candidates); ok {
		metrics.RerankTier.WithLabelValues(tierEmbedding).Inc()
		logger.Debug().Int("candidates", len(candidates)).Msg("reranked by embedding similarity")
		return apply(candidates, order, topN)
	}

	metrics.RerankTier.WithLabelValues(tierIdentity).Inc()
	logger.Warn().Msg("all rerank strategies failed, keeping recall order")
	return apply(candidates, nil, topN)
}

func (c *Cascade) external(ctx context.Context, query string, candidates []core.SearchHit) ([]int, bool) {
	if c.reranker == nil {
		return nil, false
	}

	// Blank texts are not sent; positions map the reranker's indices back
	// to candidates.
	texts := make([]string, 0, len(candidates))
	positions := make([]int, 0, len(candidates))
	for i, hit := range candidates {
		if strings.TrimSpace(hit.Content) == "" {
			continue
		}
		texts = append(texts, hit.Content)
		positions = append(positions, i)
	}
	if len(texts) == 0 {
		return nil, false
	}

	results, err := c.reranker.Rerank(ctx, query, texts)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("external reranker failed, falling back")
		return nil, false
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	order := make([]int, 0, len(results))
	seen := make(map[int]bool, len(results))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(positions) || seen[r.Index] {
			continue
		}
		seen[r.Index] = true
		order = append(order, positions[r.Index])
	}
	return order, true
}

func (c *Cascade) byEmbedding(ctx context.Context, query string, candidates []core.SearchHit) ([]int, bool) {
	if c.embedder == nil {
		return nil, false
	}

	inputs := make([]string, 0, len(candidates)+1)
	inputs = append(inputs, query)
	for _, hit := range candidates {
		inputs = append(inputs, hit.Content)
	}

	vectors, err := c.embedder.EmbedBatch(ctx, inputs)
	if err != nil || len(vectors) != len(inputs) {
		log.FromCtx(ctx).Warn().Err(err).Msg("embedding rerank failed, falling back")
		return nil, false
	}

	type scored struct {
		index int
		score float64
	}
	scores := make([]scored, len(candidates))
	for i := range candidates {
		scores[i] = scored{index: i, score: Cosine(vectors[0], vectors[i+1])}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	order := make([]int, len(scores))
	for i, s := range scores {
		order[i] = s.index
	}
	return order, true
}

// apply picks candidates in order, nil order means recall order.
func apply(candidates []core.SearchHit, order []int, topN int) []core.SearchHit {
	if order == nil {
		n := min(topN, len(candidates))
		out := make([]core.SearchHit, n)
		copy(out, candidates[:n])
		return out
	}

	out := make([]core.SearchHit, 0, min(topN, len(order)))
	for _, idx := range order {
		if len(out) == topN {
			break
		}
		if idx >= 0 && idx < len(candidates) {
			out = append(out, candidates[idx])
		}
	}
	return out
}

// Cosine returns the cosine similarity of a and b, 0 when either is zero.
func Cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := 0; i < len(a) && i < len(b); i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		normA += float64(v) * float64(v)
	}
	for _, v := range b {
		normB += float64(v) * float64(v)
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
