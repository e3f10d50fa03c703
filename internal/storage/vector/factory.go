package vector

import (
	"context"
	"fmt"

	"github.com/sandevgo/ragmemory/internal/config"
	"github.com/sandevgo/ragmemory/internal/core"
)

// NewStore builds the configured backend. It does not connect; the first
// operation does.
func NewStore(ctx context.Context, cfg *config.VectorConfig, app *config.AppConfig) (core.VectorStore, error) {
	switch cfg.Backend {
	case config.VectorBackendQdrant:
		return NewQdrant(ctx, QdrantConfig{
			Host:       cfg.Host,
			Port:       cfg.Port,
			APIKey:     cfg.APIKey,
			UseTLS:     cfg.UseTLS,
			Collection: cfg.Collection,
			Dimension:  cfg.Dimension,
			Timeout:    cfg.Timeout,
		}), nil
	case config.VectorBackendChromem:
		return NewChromem(ctx, ChromemConfig{
			Path:       app.GetVectorsPath(),
			Compress:   true,
			Collection: cfg.Collection,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown vector backend: %s", core.ErrInvalidConfig, cfg.Backend)
	}
}
