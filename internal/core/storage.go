package core

import (
	"context"
	"time"
)

type VectorStore interface {
	Connect(ctx context.Context) bool
	Insert(ctx context.Context, userID string, contents []string, embeddings [][]float32, ts time.Time) int
	Search(ctx context.Context, userID string, vector []float32, topK int) ([]SearchHit, error)
	Ping(ctx context.Context) bool
	Close() error
}

// MemoryRepository persists the per-user log, summary and profile.
// Callers serialize access per user.
type MemoryRepository interface {
	AppendHistory(ctx context.Context, userID string, entries []MemoryEntry) error
	ReadHistory(ctx context.Context, userID string) ([]MemoryEntry, error)
	ReplaceHistoryAndSummary(ctx context.Context, userID, summary string, recent []MemoryEntry) error
	ReadSummary(ctx context.Context, userID string) (string, error)
	ReadProfile(ctx context.Context, userID string) (string, error)
	WriteProfile(ctx context.Context, userID, content string) error
}

type ConversationLogger interface {
	Append(ctx context.Context, userID, role, content string, at time.Time) error
}
