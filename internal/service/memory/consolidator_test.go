package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/ragmemory/internal/core"
	"github.com/sandevgo/ragmemory/pkg/keylock"
)

func newConsolidator(t *testing.T, llm *scriptedLLM, window, threshold int) (*Consolidator, core.MemoryRepository) {
	t.Helper()
	repo := newFilesRepo(t)
	c := NewConsolidator(repo, llm, keylock.New(), window, threshold)
	c.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }
	return c, repo
}

func TestConsolidator_ThresholdBoundary(t *testing.T) {
	llm := &scriptedLLM{reply: replyWith("The user talked about five things.")}
	c, _ := newConsolidator(t, llm, 3, 5)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		require.NoError(t, c.Update(ctx, "u1", []string{fmt.Sprintf("entry %d", i)}))
	}
	assert.Zero(t, llm.callCount(), "no compression below threshold")

	summary, err := c.GetCompressedSummary(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, summary)

	require.NoError(t, c.Update(ctx, "u1", []string{"entry 5"}))
	assert.Equal(t, 1, llm.callCount())

	recent, err := c.GetRecentHistory(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"entry 3", "entry 4", "entry 5"}, recent)

	summary, err = c.GetCompressedSummary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "# History summary\n\nThe user talked about five things.\n", summary)

	prompt := llm.call(0)
	require.Len(t, prompt, 2)
	assert.Equal(t, summarySystem, prompt[0].Content)
	assert.Contains(t, prompt[1].Content, "[2026-05-01T09:00:00Z] entry 1\n[2026-05-01T09:00:00Z] entry 2\n")
	assert.NotContains(t, prompt[1].Content, "entry 3")
	assert.Contains(t, prompt[1].Content, "300 words")
}

func TestConsolidator_ThresholdEqualToWindow(t *testing.T) {
	llm := &scriptedLLM{reply: replyWith("summary of entry 1")}
	c, _ := newConsolidator(t, llm, 2, 2)
	ctx := context.Background()

	require.NoError(t, c.Update(ctx, "u1", []string{"entry 1"}))
	require.NoError(t, c.Update(ctx, "u1", []string{"entry 2"}))
	assert.Zero(t, llm.callCount(), "a log that fits the window has nothing to summarize")

	summary, err := c.GetCompressedSummary(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, summary)

	require.NoError(t, c.Update(ctx, "u1", []string{"entry 3"}))
	require.Equal(t, 1, llm.callCount())
	assert.Contains(t, llm.call(0)[1].Content, "entry 1")
	assert.NotContains(t, llm.call(0)[1].Content, "entry 2")

	recent, err := c.GetRecentHistory(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"entry 2", "entry 3"}, recent)
}

func TestConsolidator_WindowInvariant(t *testing.T) {
	tests := []struct {
		window, threshold int
		batches           []int
	}{
		{window: 3, threshold: 5, batches: []int{1, 1, 1, 1, 1, 1, 1, 1}},
		{window: 2, threshold: 2, batches: []int{1, 3, 1, 2, 5}},
		{window: 4, threshold: 10, batches: []int{7, 7, 1, 12}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("w%d_t%d", tt.window, tt.threshold), func(t *testing.T) {
			llm := &scriptedLLM{reply: replyWith("summary")}
			c, repo := newConsolidator(t, llm, tt.window, tt.threshold)
			ctx := context.Background()

			n := 0
			for _, size := range tt.batches {
				texts := make([]string, size)
				for i := range texts {
					n++
					texts[i] = fmt.Sprintf("entry %d", n)
				}
				prior, err := repo.ReadHistory(ctx, "u")
				require.NoError(t, err)

				require.NoError(t, c.Update(ctx, "u", texts))

				history, err := repo.ReadHistory(ctx, "u")
				require.NoError(t, err)
				assert.LessOrEqual(t, len(history), max(tt.threshold-1, tt.window))

				if len(prior)+size >= tt.threshold {
					assert.Len(t, history, min(tt.window, len(prior)+size))
					assert.Equal(t, texts[len(texts)-1], history[len(history)-1].Text)
				}
			}
		})
	}
}

func TestConsolidator_LLMFailureLeavesStateUntouched(t *testing.T) {
	llm := &scriptedLLM{reply: failWith(core.ErrLLMClient)}
	c, repo := newConsolidator(t, llm, 3, 5)
	ctx := context.Background()

	require.NoError(t, c.Update(ctx, "u1", []string{"a", "b", "c", "d", "e"}))
	assert.Equal(t, 1, llm.callCount())

	history, err := repo.ReadHistory(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, history, 5)
	summary, err := repo.ReadSummary(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, summary)

	// The oversized log is retried on the next update.
	llm.reply = replyWith("recovered")
	require.NoError(t, c.Update(ctx, "u1", []string{"f"}))

	history, err = repo.ReadHistory(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, history, 3)
	assert.Equal(t, "f", history[2].Text)
}

func TestConsolidator_BlankSummaryIsNotWritten(t *testing.T) {
	llm := &scriptedLLM{reply: replyWith("  \n")}
	c, repo := newConsolidator(t, llm, 1, 2)
	ctx := context.Background()

	require.NoError(t, c.Update(ctx, "u1", []string{"a", "b"}))

	history, err := repo.ReadHistory(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestConsolidator_IncrementalSummary(t *testing.T) {
	llm := &scriptedLLM{reply: replyWith("first summary")}
	c, _ := newConsolidator(t, llm, 2, 3)
	ctx := context.Background()

	require.NoError(t, c.Update(ctx, "u1", []string{"a", "b", "c"}))
	llm.reply = replyWith("second summary")
	require.NoError(t, c.Update(ctx, "u1", []string{"d"}))

	require.Equal(t, 2, llm.callCount())
	prompt := llm.call(1)
	assert.Equal(t, incrementalSystem, prompt[0].Content)
	assert.Contains(t, prompt[1].Content, "# History summary\n\nfirst summary")
	assert.Contains(t, prompt[1].Content, "400 words")

	snap, err := c.Snapshot(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, snap.Recent)
	assert.True(t, strings.Contains(snap.Summary, "second summary"))
}

func TestConsolidator_ConcurrentUpdatesSameUser(t *testing.T) {
	llm := &scriptedLLM{reply: replyWith("summary")}
	c, repo := newConsolidator(t, llm, 3, 5)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, c.Update(ctx, "u1", []string{fmt.Sprintf("entry %d", i)}))
		}(i)
	}
	wg.Wait()

	history, err := repo.ReadHistory(ctx, "u1")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(history), 4)
	// Each compression consumed at least threshold-window entries.
	assert.LessOrEqual(t, llm.callCount(), 14)
}

func TestConsolidator_EdgeCases(t *testing.T) {
	llm := &scriptedLLM{reply: replyWith("summary")}
	c, _ := newConsolidator(t, llm, 3, 5)
	ctx := context.Background()

	assert.ErrorIs(t, c.Update(ctx, "", []string{"a"}), core.ErrInvalidRequest)
	assert.NoError(t, c.Update(ctx, "u1", nil))

	recent, err := c.GetRecentHistory(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, recent)
}
