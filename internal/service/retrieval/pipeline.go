package retrieval

import (
	"context"
	"time"

	"github.com/sandevgo/ragmemory/internal/core"
	"github.com/sandevgo/ragmemory/internal/metrics"
	"github.com/sandevgo/ragmemory/pkg/log"
)

type Chunker interface {
	ChunkBatch(texts []string, metadata map[string]string) []core.TextChunk
}

type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []core.SearchHit, topN int) []core.SearchHit
}

// Pipeline is the long-term memory path: embed, recall, rerank on the way
// out and chunk, embed, insert on the way in. Both directions degrade to an
// empty result instead of failing.
type Pipeline struct {
	chunker  Chunker
	embedder core.Embedder
	store    core.VectorStore
	reranker Reranker
	topK     int
	topN     int
}

func NewPipeline(chunker Chunker, embedder core.Embedder, store core.VectorStore, reranker Reranker, topK, topN int) *Pipeline {
	return &Pipeline{
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		reranker: reranker,
		topK:     topK,
		topN:     topN,
	}
}

func (p *Pipeline) Retrieve(ctx context.Context, userID, query string) []core.RetrievedChunk {
	logger := log.FromCtx(ctx).With().Str("user_id", userID).Logger()

	vector, err := p.embedder.EmbedOne(ctx, query)
	if err != nil {
		logger.Warn().Err(err).Msg("query embedding failed, returning no memories")
		metrics.RetrievalDegraded.WithLabelValues("embed").Inc()
		return []core.RetrievedChunk{}
	}

	hits, err := p.store.Search(ctx, userID, vector, p.topK)
	if err != nil {
		logger.Warn().Err(err).Msg("vector search failed, returning no memories")
		metrics.RetrievalDegraded.WithLabelValues("search").Inc()
		return []core.RetrievedChunk{}
	}
	if len(hits) == 0 {
		logger.Debug().Msg("no related memories")
		return []core.RetrievedChunk{}
	}

	ranked := p.reranker.Rerank(ctx, query, hits, p.topN)

	chunks := make([]core.RetrievedChunk, 0, len(ranked))
	for _, hit := range ranked {
		chunks = append(chunks, core.RetrievedChunk{
			Content: hit.Content,
			Score:   float64(hit.Score),
			Source:  core.SourceVector,
			Metadata: map[string]string{
				"timestamp": hit.Timestamp,
				"user_id":   hit.UserID,
				"id":        hit.ID,
			},
		})
	}

	logger.Info().Int("recalled", len(hits)).Int("chunks", len(chunks)).Msg("retrieval done")
	return chunks
}

func (p *Pipeline) Store(ctx context.Context, userID string, texts []string, ts time.Time) int {
	logger := log.FromCtx(ctx).With().Str("user_id", userID).Logger()

	chunks := p.chunker.ChunkBatch(texts, nil)
	if len(chunks) == 0 {
		logger.Debug().Msg("nothing to store after chunking")
		return 0
	}

	contents := make([]string, len(chunks))
	for i, c := range chunks {
		contents[i] = c.Content
	}

	vectors, err := p.embedder.EmbedBatch(ctx, contents)
	if err != nil {
		logger.Warn().Err(err).Msg("chunk embedding failed, nothing stored")
		metrics.RetrievalDegraded.WithLabelValues("store_embed").Inc()
		return 0
	}
	if len(vectors) != len(contents) {
		logger.Warn().Int("chunks", len(contents)).Int("vectors", len(vectors)).Msg("embedding count mismatch, nothing stored")
		return 0
	}

	stored := p.store.Insert(ctx, userID, contents, vectors, ts)
	metrics.ChunksStored.Add(float64(stored))

	logger.Info().Int("chunks", len(chunks)).Int("stored", stored).Msg("memories stored")
	return stored
}
