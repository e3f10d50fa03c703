package vector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog"

	"github.com/sandevgo/ragmemory/internal/core"
	"github.com/sandevgo/ragmemory/pkg/log"
)

var errPrecomputedOnly = errors.New("embeddings must be computed by the caller")

type ChromemConfig struct {
	// Path enables persistence. Empty keeps everything in memory.
	Path       string
	Compress   bool
	Collection string
}

// Chromem is an in-process store for single node deployments and tests.
type Chromem struct {
	cfg    ChromemConfig
	conn   *connection
	logger *zerolog.Logger

	mu  sync.RWMutex
	db  *chromem.DB
	col *chromem.Collection
}

func NewChromem(ctx context.Context, cfg ChromemConfig) *Chromem {
	logger := log.FromCtx(ctx).With().
		Str("component", "chromem").
		Str("collection", cfg.Collection).
		Logger()

	c := &Chromem{cfg: cfg, logger: &logger}
	c.conn = newConnection(c.logger, c.dial)
	return c
}

func (c *Chromem) Connect(ctx context.Context) bool {
	return c.conn.ensure(ctx)
}

func (c *Chromem) dial(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.col != nil {
		return nil
	}

	db := chromem.NewDB()
	if c.cfg.Path != "" {
		var err error
		db, err = chromem.NewPersistentDB(c.cfg.Path, c.cfg.Compress)
		if err != nil {
			return fmt.Errorf("open chromem db: %w", err)
		}
	}

	col, err := db.GetOrCreateCollection(c.cfg.Collection, nil, noEmbedding)
	if err != nil {
		return fmt.Errorf("open collection %s: %w", c.cfg.Collection, err)
	}

	c.db = db
	c.col = col
	c.logger.Info().Str("path", c.cfg.Path).Int("documents", col.Count()).Msg("chromem collection ready")
	return nil
}

func noEmbedding(_ context.Context, _ string) ([]float32, error) {
	return nil, errPrecomputedOnly
}

func (c *Chromem) collection() *chromem.Collection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.col
}

func (c *Chromem) Insert(ctx context.Context, userID string, contents []string, embeddings [][]float32, ts time.Time) int {
	if !checkBatch(c.logger, contents, embeddings) {
		return 0
	}
	if !c.conn.ensure(ctx) {
		return 0
	}

	timestamp := ts.UTC().Format(core.VectorTimeLayout)
	docs := make([]chromem.Document, len(contents))
	for i, content := range contents {
		id, err := uuid.NewV7()
		if err != nil {
			id = uuid.New()
		}
		docs[i] = chromem.Document{
			ID:      id.String(),
			Content: content,
			Metadata: map[string]string{
				fieldUserID:    userID,
				fieldTimestamp: timestamp,
			},
			Embedding: embeddings[i],
		}
	}

	if err := c.collection().AddDocuments(ctx, docs, 1); err != nil {
		c.logger.Error().Err(err).Str("user_id", userID).Int("count", len(docs)).Msg("insert failed")
		c.conn.markStale()
		return 0
	}
	return len(docs)
}

func (c *Chromem) Search(ctx context.Context, userID string, vector []float32, topK int) ([]core.SearchHit, error) {
	if err := validateSearch(userID, vector, topK); err != nil {
		return nil, err
	}
	if !c.conn.ensure(ctx) {
		return nil, fmt.Errorf("%w: not connected", core.ErrVectorStoreUnavailable)
	}

	col := c.collection()
	where := map[string]string{fieldUserID: userID}

	// chromem requires nResults <= collection size, and fewer documents may
	// match the tenant filter. Shrink the limit until the query fits.
	limit := min(topK, col.Count())
	var results []chromem.Result
	for ; limit >= 1; limit-- {
		var err error
		results, err = col.QueryEmbedding(ctx, vector, limit, where, nil)
		if err == nil {
			break
		}
		if !isInsufficientDocs(err) {
			c.conn.markStale()
			return nil, fmt.Errorf("%w: search: %v", core.ErrVectorStoreUnavailable, err)
		}
	}
	if limit < 1 {
		return []core.SearchHit{}, nil
	}

	hits := make([]core.SearchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, core.SearchHit{
			ID:        r.ID,
			UserID:    r.Metadata[fieldUserID],
			Content:   r.Content,
			Timestamp: r.Metadata[fieldTimestamp],
			Score:     r.Similarity,
		})
	}
	return hits, nil
}

func isInsufficientDocs(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}

func (c *Chromem) Ping(ctx context.Context) bool {
	return c.conn.ensure(ctx)
}

func (c *Chromem) Close() error {
	c.conn.markStale()
	return nil
}
