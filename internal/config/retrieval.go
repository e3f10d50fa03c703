package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/ragmemory/internal/core"
	"github.com/sandevgo/ragmemory/pkg/log"
)

type RetrievalConfig struct {
	RerankerURL     string        `env:"RERANKER_URL" envDefault:"http://localhost:8080/rerank"`
	RerankerTimeout time.Duration `env:"RERANKER_TIMEOUT" envDefault:"10s"`
	TopK            int           `env:"RETRIEVAL_TOP_K" envDefault:"10"`
	TopN            int           `env:"RERANK_TOP_N" envDefault:"5"`
	ChunkSize       int           `env:"CHUNK_SIZE" envDefault:"512"`
	ChunkOverlap    int           `env:"CHUNK_OVERLAP" envDefault:"64"`
	MinChunkSize    int           `env:"MIN_CHUNK_SIZE" envDefault:"10"`
}

func NewRetrievalConfig(ctx context.Context) *RetrievalConfig {
	c := &RetrievalConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Retrieval config")
	}
	if err := c.Validate(); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("invalid Retrieval config")
	}
	return c
}

func (c RetrievalConfig) Validate() error {
	if c.TopK < 1 || c.TopN < 1 {
		return fmt.Errorf("%w: top_k and top_n must be positive", core.ErrInvalidConfig)
	}
	if c.ChunkSize < 1 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be in [0, chunk size)", core.ErrInvalidConfig)
	}
	return nil
}
