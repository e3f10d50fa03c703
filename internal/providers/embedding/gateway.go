package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/sandevgo/ragmemory/internal/core"
	"github.com/sandevgo/ragmemory/internal/providers/llm"
	"github.com/sandevgo/ragmemory/pkg/log"
	"github.com/sandevgo/ragmemory/pkg/retry"
)

const defaultBatchSize = 32

type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	BatchSize int
	Timeout   time.Duration
	// RPS throttles outbound calls; zero disables the limiter.
	RPS   float64
	Retry *retry.Config
}

// Gateway embeds text through an OpenAI compatible embeddings endpoint.
type Gateway struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	batchSize int
	limiter   *rate.Limiter
	retrier   *retry.Retrier
}

func NewGateway(cfg Config) *Gateway {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	rc := retry.NewDefaultConfig()
	if cfg.Retry != nil {
		custom := *cfg.Retry
		rc = &custom
	}
	rc.AttemptTimeout = cfg.Timeout
	rc.Retryable = llm.IsRetryable

	g := &Gateway{
		client:    openai.NewClientWithConfig(oc),
		model:     openai.EmbeddingModel(cfg.Model),
		batchSize: batch,
		retrier:   retry.NewRetrier(rc),
	}
	if cfg.RPS > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}
	return g
}

// EmbedBatch returns one vector per input text, in input order.
func (g *Gateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += g.batchSize {
		end := min(start+g.batchSize, len(texts))

		vectors, err := g.embedWithRetry(ctx, texts[start:end])
		if err != nil {
			log.FromCtx(ctx).Error().
				Err(err).
				Int("batch_start", start).
				Int("batch_size", end-start).
				Msg("embedding batch failed")
			return nil, fmt.Errorf("%w: %v", core.ErrEmbedding, err)
		}
		out = append(out, vectors...)
	}

	return out, nil
}

func (g *Gateway) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", core.ErrEmbedding)
	}
	return vectors[0], nil
}

func (g *Gateway) embedWithRetry(ctx context.Context, batch []string) ([][]float32, error) {
	var vectors [][]float32
	err := g.retrier.Do(ctx, func(ctx context.Context) error {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		resp, err := g.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: g.model,
		})
		if err != nil {
			return err
		}

		ordered, err := reorder(resp.Data, len(batch))
		if err != nil {
			return err
		}
		vectors = ordered
		return nil
	})
	return vectors, err
}

// reorder places every embedding at the position given by its index, the
// provider may return them shuffled.
func reorder(data []openai.Embedding, want int) ([][]float32, error) {
	if len(data) != want {
		return nil, fmt.Errorf("unexpected number of embeddings: got %d, want %d", len(data), want)
	}

	out := make([][]float32, want)
	for _, d := range data {
		if d.Index < 0 || d.Index >= want {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		if out[d.Index] != nil {
			return nil, errors.New("duplicate embedding index")
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
