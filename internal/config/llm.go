package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/ragmemory/pkg/log"
)

type LLMConfig struct {
	Provider  string        `env:"LLM_PROVIDER" envDefault:"openai"`
	APIKey    string        `env:"MY_API_KEY,required,notEmpty" secret:"true"`
	BaseURL   string        `env:"MY_API_BASE" envDefault:"https://api.openai.com/v1"`
	Model     string        `env:"MY_MODEL" envDefault:"gpt-4o-mini"`
	Timeout   time.Duration `env:"LLM_TIMEOUT" envDefault:"120s"`
	MaxTokens int           `env:"LLM_MAX_TOKENS" envDefault:"1024"`
}

func NewLLMConfig(ctx context.Context) *LLMConfig {
	c := &LLMConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse LLM config")
	}
	return c
}

type EmbeddingConfig struct {
	Model     string        `env:"MY_EMBEDDING_MODEL" envDefault:"bge-m3"`
	BatchSize int           `env:"EMBEDDING_BATCH_SIZE" envDefault:"32"`
	Timeout   time.Duration `env:"EMBEDDING_TIMEOUT" envDefault:"10s"`
	RPS       float64       `env:"EMBEDDING_RPS" envDefault:"0"`
}

func NewEmbeddingConfig(ctx context.Context) *EmbeddingConfig {
	c := &EmbeddingConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Embedding config")
	}
	return c
}
