package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/ragmemory/pkg/log"
)

const (
	VectorBackendQdrant  = "qdrant"
	VectorBackendChromem = "chromem"
)

type VectorConfig struct {
	Backend    string        `env:"VECTOR_BACKEND" envDefault:"qdrant"`
	Host       string        `env:"VECTOR_HOST" envDefault:"localhost"`
	Port       int           `env:"VECTOR_PORT" envDefault:"6334"`
	Collection string        `env:"VECTOR_COLLECTION" envDefault:"rag_memory"`
	Dimension  int           `env:"VECTOR_DIM" envDefault:"1024"`
	APIKey     string        `env:"VECTOR_API_KEY" secret:"true"`
	UseTLS     bool          `env:"VECTOR_USE_TLS" envDefault:"false"`
	Timeout    time.Duration `env:"VECTOR_TIMEOUT" envDefault:"10s"`
}

func NewVectorConfig(ctx context.Context) *VectorConfig {
	c := &VectorConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Vector config")
	}
	return c
}
