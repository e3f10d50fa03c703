package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sandevgo/ragmemory/internal/core"
	"github.com/sandevgo/ragmemory/internal/storage/files"
)

// scriptedLLM answers with reply and records every prompt it gets.
type scriptedLLM struct {
	mu    sync.Mutex
	reply func(msgs []core.Message) (string, error)
	calls [][]core.Message
}

func (l *scriptedLLM) Complete(_ context.Context, msgs []core.Message) (string, error) {
	l.mu.Lock()
	l.calls = append(l.calls, msgs)
	reply := l.reply
	l.mu.Unlock()
	return reply(msgs)
}

func (l *scriptedLLM) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

func (l *scriptedLLM) call(i int) []core.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[i]
}

func replyWith(s string) func([]core.Message) (string, error) {
	return func([]core.Message) (string, error) { return s, nil }
}

func failWith(err error) func([]core.Message) (string, error) {
	return func([]core.Message) (string, error) { return "", err }
}

func newFilesRepo(t *testing.T) core.MemoryRepository {
	t.Helper()
	repo, err := files.NewRepository(t.TempDir())
	require.NoError(t, err)
	return repo
}
