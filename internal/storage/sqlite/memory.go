package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sandevgo/ragmemory/internal/core"
)

// MemoryRepository stores the per-user log, summary and profile in SQLite.
// Compression is a single transaction.
type MemoryRepository struct {
	db *sql.DB
}

func NewMemoryRepository(db *sql.DB) *MemoryRepository {
	return &MemoryRepository{db: db}
}

func (r *MemoryRepository) AppendHistory(ctx context.Context, userID string, entries []core.MemoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertEntries(ctx, tx, userID, entries); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *MemoryRepository) ReadHistory(ctx context.Context, userID string) ([]core.MemoryEntry, error) {
	query := `SELECT text, timestamp FROM history WHERE user_id = ? ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []core.MemoryEntry{}
	for rows.Next() {
		var e core.MemoryEntry
		if err := rows.Scan(&e.Text, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *MemoryRepository) ReplaceHistoryAndSummary(ctx context.Context, userID, summary string, recent []core.MemoryEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertDocument(ctx, tx, "summaries", userID, summary); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM history WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to truncate history: %w", err)
	}
	if err := insertEntries(ctx, tx, userID, recent); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit compression: %w", err)
	}
	return nil
}

func (r *MemoryRepository) ReadSummary(ctx context.Context, userID string) (string, error) {
	return r.readDocument(ctx, "summaries", userID)
}

func (r *MemoryRepository) ReadProfile(ctx context.Context, userID string) (string, error) {
	content, err := r.readDocument(ctx, "profiles", userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrProfile, err)
	}
	return content, nil
}

func (r *MemoryRepository) WriteProfile(ctx context.Context, userID, content string) error {
	if err := upsertDocument(ctx, r.db, "profiles", userID, content); err != nil {
		return fmt.Errorf("%w: %v", core.ErrProfile, err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertEntries(ctx context.Context, tx *sql.Tx, userID string, entries []core.MemoryEntry) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO history (user_id, text, timestamp) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, userID, e.Text, e.Timestamp); err != nil {
			return fmt.Errorf("failed to insert history entry: %w", err)
		}
	}
	return nil
}

// table is always one of our constants, never caller input.
func upsertDocument(ctx context.Context, db execer, table, userID, content string) error {
	query := fmt.Sprintf(`INSERT INTO %s (user_id, content, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET content = excluded.content, updated_at = CURRENT_TIMESTAMP`, table)
	if _, err := db.ExecContext(ctx, query, userID, content); err != nil {
		return fmt.Errorf("failed to write %s: %w", table, err)
	}
	return nil
}

func (r *MemoryRepository) readDocument(ctx context.Context, table, userID string) (string, error) {
	var content string
	query := fmt.Sprintf(`SELECT content FROM %s WHERE user_id = ?`, table)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", table, err)
	}
	return content, nil
}
