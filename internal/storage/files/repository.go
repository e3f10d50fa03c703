package files

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sandevgo/ragmemory/internal/core"
	"github.com/sandevgo/ragmemory/pkg/log"
)

const (
	historyFile = "history.jsonl"
	summaryFile = "compressed.md"
	profileFile = "user.md"

	maxLineSize = 4 * 1024 * 1024
)

// Repository keeps every user in data/users/{id}/ as plain files.
type Repository struct {
	root string
}

func NewRepository(root string) (*Repository, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create users directory: %w", err)
	}
	return &Repository{root: root}, nil
}

func (r *Repository) userDir(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: empty user id", core.ErrInvalidRequest)
	}
	return filepath.Join(r.root, dirName(userID)), nil
}

// path resolves a user file without touching the disk, reads of unknown
// users must not leave directories behind.
func (r *Repository) path(userID, name string) (string, error) {
	dir, err := r.userDir(userID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// writePath is path for writers, it creates the user directory first.
func (r *Repository) writePath(userID, name string) (string, error) {
	dir, err := r.userDir(userID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create user directory: %w", err)
	}
	return filepath.Join(dir, name), nil
}

func (r *Repository) AppendHistory(ctx context.Context, userID string, entries []core.MemoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	path, err := r.writePath(userID, historyFile)
	if err != nil {
		return err
	}

	data, err := encodeEntries(entries)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func (r *Repository) ReadHistory(ctx context.Context, userID string) ([]core.MemoryEntry, error) {
	path, err := r.path(userID, historyFile)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []core.MemoryEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	defer f.Close()

	logger := log.FromCtx(ctx)
	entries := []core.MemoryEntry{}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for line := 1; scanner.Scan(); line++ {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var e core.MemoryEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Int("line", line).Msg("skipping malformed history line")
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	return entries, nil
}

// ReplaceHistoryAndSummary writes the summary first, then the truncated log.
// A crash between the two leaves old entries that will be summarized again.
func (r *Repository) ReplaceHistoryAndSummary(ctx context.Context, userID, summary string, recent []core.MemoryEntry) error {
	summaryPath, err := r.writePath(userID, summaryFile)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(summaryPath, []byte(summary)); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	data, err := encodeEntries(recent)
	if err != nil {
		return err
	}
	historyPath, err := r.writePath(userID, historyFile)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(historyPath, data); err != nil {
		return fmt.Errorf("failed to rewrite history: %w", err)
	}
	return nil
}

func (r *Repository) ReadSummary(ctx context.Context, userID string) (string, error) {
	return r.readOptional(userID, summaryFile)
}

func (r *Repository) ReadProfile(ctx context.Context, userID string) (string, error) {
	content, err := r.readOptional(userID, profileFile)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrProfile, err)
	}
	return content, nil
}

func (r *Repository) WriteProfile(ctx context.Context, userID, content string) error {
	path, err := r.writePath(userID, profileFile)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrProfile, err)
	}
	if err := writeFileAtomic(path, []byte(content)); err != nil {
		return fmt.Errorf("%w: failed to write profile: %v", core.ErrProfile, err)
	}
	return nil
}

func (r *Repository) readOptional(userID, name string) (string, error) {
	path, err := r.path(userID, name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), nil
}

func encodeEntries(entries []core.MemoryEntry) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return nil, fmt.Errorf("failed to encode history entry: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// writeFileAtomic replaces path through a temp file in the same directory.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
