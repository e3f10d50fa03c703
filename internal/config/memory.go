package config

import (
	"context"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/ragmemory/internal/core"
	"github.com/sandevgo/ragmemory/pkg/log"
)

const (
	MemoryBackendFiles  = "files"
	MemoryBackendSQLite = "sqlite"
)

type MemoryConfig struct {
	WindowSize        int    `env:"MEMORY_WINDOW_SIZE" envDefault:"10"`
	CompressThreshold int    `env:"MEMORY_COMPRESS_THRESHOLD" envDefault:"20"`
	Backend           string `env:"MEMORY_BACKEND" envDefault:"files"`
}

func NewMemoryConfig(ctx context.Context) *MemoryConfig {
	c := &MemoryConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Memory config")
	}
	if err := c.Validate(); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("invalid Memory config")
	}
	return c
}

func (c MemoryConfig) Validate() error {
	if c.WindowSize < 1 {
		return fmt.Errorf("%w: window size must be at least 1", core.ErrInvalidConfig)
	}
	if c.CompressThreshold < c.WindowSize {
		return fmt.Errorf("%w: compress threshold %d is below window size %d",
			core.ErrInvalidConfig, c.CompressThreshold, c.WindowSize)
	}
	switch c.Backend {
	case MemoryBackendFiles, MemoryBackendSQLite:
	default:
		return fmt.Errorf("%w: unknown memory backend %q", core.ErrInvalidConfig, c.Backend)
	}
	return nil
}
