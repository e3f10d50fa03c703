package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/ragmemory/internal/core"
)

func newTestRepo(t *testing.T) *MemoryRepository {
	t.Helper()
	db, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMemoryRepository(db)
}

func TestMemoryRepository_History(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	entries, err := r.ReadHistory(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, r.AppendHistory(ctx, "alice", []core.MemoryEntry{{Text: "one", Timestamp: "t1"}, {Text: "two", Timestamp: "t2"}}))
	require.NoError(t, r.AppendHistory(ctx, "bob", []core.MemoryEntry{{Text: "bob", Timestamp: "t"}}))
	require.NoError(t, r.AppendHistory(ctx, "alice", []core.MemoryEntry{{Text: "three", Timestamp: "t3"}}))

	entries, err = r.ReadHistory(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []core.MemoryEntry{
		{Text: "one", Timestamp: "t1"},
		{Text: "two", Timestamp: "t2"},
		{Text: "three", Timestamp: "t3"},
	}, entries)
}

func TestMemoryRepository_ReplaceHistoryAndSummary(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.AppendHistory(ctx, "alice", []core.MemoryEntry{{Text: "a"}, {Text: "b"}, {Text: "c"}}))
	require.NoError(t, r.AppendHistory(ctx, "bob", []core.MemoryEntry{{Text: "keep"}}))

	require.NoError(t, r.ReplaceHistoryAndSummary(ctx, "alice", "# History summary\n\nv1\n", []core.MemoryEntry{{Text: "b"}, {Text: "c"}}))
	require.NoError(t, r.ReplaceHistoryAndSummary(ctx, "alice", "# History summary\n\nv2\n", []core.MemoryEntry{{Text: "c"}}))

	entries, err := r.ReadHistory(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "c", entries[0].Text)

	summary, err := r.ReadSummary(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "# History summary\n\nv2\n", summary)

	bob, err := r.ReadHistory(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, bob, 1)
}

func TestMemoryRepository_Profile(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	p, err := r.ReadProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, p)

	require.NoError(t, r.WriteProfile(ctx, "alice", "v1"))
	require.NoError(t, r.WriteProfile(ctx, "alice", "v2"))

	p, err = r.ReadProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "v2", p)
}

func TestNewDB_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "again.db")
	ctx := context.Background()

	db, err := NewDB(ctx, path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = NewDB(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n))
	assert.Zero(t, n)
}
