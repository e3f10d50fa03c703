package core

import "time"

// HistoryTimeLayout is used for memory log entries.
const HistoryTimeLayout = time.RFC3339

// VectorTimeLayout is the timestamp format stored alongside vector records.
const VectorTimeLayout = "2006-01-02T15:04:05Z"

type MemoryEntry struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// HistorySnapshot is the short-term memory of one user.
type HistorySnapshot struct {
	Recent  []string `json:"recent"`
	Summary string   `json:"summary"`
}
