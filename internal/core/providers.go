package core

import "context"

type ChatModel interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

type RerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

type Reranker interface {
	Rerank(ctx context.Context, query string, texts []string) ([]RerankResult, error)
}
