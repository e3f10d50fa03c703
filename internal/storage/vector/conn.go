package vector

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// connection tracks whether a backend is usable. A stale backend gets one
// reconnect attempt per caller, and concurrent callers share that attempt.
type connection struct {
	connected atomic.Bool
	group     singleflight.Group
	dial      func(ctx context.Context) error
	logger    *zerolog.Logger
}

func newConnection(logger *zerolog.Logger, dial func(ctx context.Context) error) *connection {
	return &connection{dial: dial, logger: logger}
}

func (c *connection) ensure(ctx context.Context) bool {
	if c.connected.Load() {
		return true
	}

	_, err, shared := c.group.Do("connect", func() (any, error) {
		if c.connected.Load() {
			return nil, nil
		}
		if err := c.dial(ctx); err != nil {
			return nil, err
		}
		c.connected.Store(true)
		return nil, nil
	})
	if err != nil {
		c.logger.Error().Err(err).Bool("shared", shared).Msg("vector store connect failed")
		return false
	}
	return true
}

func (c *connection) markStale() {
	if c.connected.Swap(false) {
		c.logger.Warn().Msg("vector store marked stale")
	}
}

func (c *connection) isConnected() bool {
	return c.connected.Load()
}
