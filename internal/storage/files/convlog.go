package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sandevgo/ragmemory/pkg/keylock"
)

// ConversationLog appends every message to a per user, per day markdown file.
type ConversationLog struct {
	dir   string
	locks *keylock.Locker
}

func NewConversationLog(dir string) (*ConversationLog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create conversation log directory: %w", err)
	}
	return &ConversationLog{dir: dir, locks: keylock.New()}, nil
}

func (l *ConversationLog) Append(ctx context.Context, userID, role, content string, at time.Time) error {
	date := at.Format(time.DateOnly)
	path := filepath.Join(l.dir, fmt.Sprintf("%s_%s.md", dirName(userID), date))

	unlock := l.locks.Lock(path)
	defer unlock()

	var sb strings.Builder
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(&sb, "# Conversation log | user: %s | date: %s\n\n", userID, date)
	}
	fmt.Fprintf(&sb, "**[%s] %s**\n\n%s\n\n---\n\n", at.Format(time.TimeOnly), strings.ToUpper(role), content)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open conversation log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write conversation log: %w", err)
	}
	return nil
}
