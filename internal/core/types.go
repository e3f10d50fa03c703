package core

const (
	AppName    = "ragmem"
	AppVersion = "0.1.0"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleUnknown   = "unknown"
)

// SourceVector marks chunks that came from the vector store.
const SourceVector = "vector"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TextChunk struct {
	Content     string            `json:"content"`
	Index       int               `json:"index"`
	StartOffset int               `json:"start_offset"`
	EndOffset   int               `json:"end_offset"`
	TokenCount  int               `json:"token_count,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type VectorRecord struct {
	ID        string
	UserID    string
	Content   string
	Timestamp string
	Embedding []float32
}

// SearchHit is a raw vector store result. Score is the store similarity,
// higher is closer.
type SearchHit struct {
	ID        string
	UserID    string
	Content   string
	Timestamp string
	Score     float32
}

type RetrievedChunk struct {
	Content  string            `json:"content"`
	Score    float64           `json:"score"`
	Source   string            `json:"source"`
	Metadata map[string]string `json:"metadata"`
}
