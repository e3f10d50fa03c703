package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/ragmemory/internal/core"
	"github.com/sandevgo/ragmemory/internal/metrics"
	"github.com/sandevgo/ragmemory/pkg/keylock"
	"github.com/sandevgo/ragmemory/pkg/log"
)

const summaryHeader = "# History summary"

// Consolidator keeps a sliding window of recent entries per user and folds
// everything older into a running summary once the log grows past the
// threshold.
type Consolidator struct {
	repo      core.MemoryRepository
	llm       core.ChatModel
	locks     *keylock.Locker
	window    int
	threshold int
	now       func() time.Time
}

func NewConsolidator(repo core.MemoryRepository, llm core.ChatModel, locks *keylock.Locker, window, threshold int) *Consolidator {
	if window < 1 {
		window = 1
	}
	if threshold < window {
		threshold = window
	}
	return &Consolidator{
		repo:      repo,
		llm:       llm,
		locks:     locks,
		window:    window,
		threshold: threshold,
		now:       time.Now,
	}
}

func historyKey(userID string) string { return "history:" + userID }

// Update appends texts to the user's log and compresses it when it reaches
// the threshold. Compression failures are logged and leave the log as is, so
// the next Update retries them.
func (c *Consolidator) Update(ctx context.Context, userID string, texts []string) error {
	if userID == "" {
		return core.NewInvalidRequest("user_id is required")
	}
	if len(texts) == 0 {
		return nil
	}

	unlock := c.locks.Lock(historyKey(userID))
	defer unlock()

	ts := c.now().UTC().Format(core.HistoryTimeLayout)
	entries := make([]core.MemoryEntry, len(texts))
	for i, text := range texts {
		entries[i] = core.MemoryEntry{Text: text, Timestamp: ts}
	}
	if err := c.repo.AppendHistory(ctx, userID, entries); err != nil {
		return fmt.Errorf("append history: %w", err)
	}

	history, err := c.repo.ReadHistory(ctx, userID)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if len(history) >= c.threshold {
		c.compress(ctx, userID, history)
	}
	return nil
}

func (c *Consolidator) compress(ctx context.Context, userID string, history []core.MemoryEntry) {
	logger := log.FromCtx(ctx).With().Str("user_id", userID).Logger()

	cut := len(history) - c.window
	if cut <= 0 {
		// Nothing older than the window.
		return
	}
	old, recent := history[:cut], history[cut:]

	var sb strings.Builder
	for _, e := range old {
		fmt.Fprintf(&sb, "[%s] %s\n", e.Timestamp, e.Text)
	}
	conversation := sb.String()

	existing, err := c.repo.ReadSummary(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Msg("read summary failed, compression skipped")
		metrics.Compressions.WithLabelValues(metrics.ResultError).Inc()
		return
	}

	prompt := summaryPrompt(conversation)
	if strings.TrimSpace(existing) != "" {
		prompt = incrementalPrompt(existing, conversation)
	}

	summary, err := c.llm.Complete(ctx, prompt)
	if err != nil {
		logger.Error().Err(err).Int("entries", len(history)).Msg("summary generation failed, history left untouched")
		metrics.Compressions.WithLabelValues(metrics.ResultError).Inc()
		return
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		logger.Warn().Msg("model returned an empty summary, history left untouched")
		metrics.Compressions.WithLabelValues(metrics.ResultSkipped).Inc()
		return
	}

	document := summaryHeader + "\n\n" + summary + "\n"
	if err := c.repo.ReplaceHistoryAndSummary(ctx, userID, document, recent); err != nil {
		logger.Error().Err(err).Msg("persist compressed history failed")
		metrics.Compressions.WithLabelValues(metrics.ResultError).Inc()
		return
	}

	metrics.Compressions.WithLabelValues(metrics.ResultOK).Inc()
	logger.Info().
		Int("compressed", len(old)).
		Int("kept", len(recent)).
		Msg("history compressed")
}

// GetRecentHistory returns the texts of the last window entries, oldest first.
func (c *Consolidator) GetRecentHistory(ctx context.Context, userID string) ([]string, error) {
	unlock := c.locks.Lock(historyKey(userID))
	defer unlock()
	return c.recent(ctx, userID)
}

func (c *Consolidator) GetCompressedSummary(ctx context.Context, userID string) (string, error) {
	unlock := c.locks.Lock(historyKey(userID))
	defer unlock()
	return c.repo.ReadSummary(ctx, userID)
}

// Snapshot reads the window and the summary under one lock.
func (c *Consolidator) Snapshot(ctx context.Context, userID string) (core.HistorySnapshot, error) {
	unlock := c.locks.Lock(historyKey(userID))
	defer unlock()

	recent, err := c.recent(ctx, userID)
	if err != nil {
		return core.HistorySnapshot{}, err
	}
	summary, err := c.repo.ReadSummary(ctx, userID)
	if err != nil {
		return core.HistorySnapshot{}, err
	}
	return core.HistorySnapshot{Recent: recent, Summary: summary}, nil
}

func (c *Consolidator) recent(ctx context.Context, userID string) ([]string, error) {
	history, err := c.repo.ReadHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(history) > c.window {
		history = history[len(history)-c.window:]
	}
	texts := make([]string, len(history))
	for i, e := range history {
		texts[i] = e.Text
	}
	return texts, nil
}
