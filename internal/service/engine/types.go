package engine

import (
	"github.com/sandevgo/ragmemory/internal/core"
)

type QueryRequest struct {
	UserID string    `json:"user_id"`
	Query  string    `json:"query"`
	Time   Timestamp `json:"time"`
}

type QueryResponse struct {
	Success          bool                  `json:"success"`
	Message          string                `json:"message"`
	UserID           string                `json:"user_id"`
	UserProfile      string                `json:"user_profile"`
	RetrievedChunks  []core.RetrievedChunk `json:"retrieved_chunks"`
	AugmentedContext string                `json:"augmented_context"`
	QueryTimeMs      float64               `json:"query_time_ms"`
}

type UploadRequest struct {
	UserID     string         `json:"user_id"`
	Messages   []core.Message `json:"messages"`
	Multifiles []string       `json:"multifiles"`
	Time       Timestamp      `json:"time"`
}

type UploadResponse struct {
	Success        bool    `json:"success"`
	Message        string  `json:"message"`
	UserID         string  `json:"user_id"`
	ChunksStored   int     `json:"chunks_stored"`
	ProfileUpdated bool    `json:"profile_updated"`
	ProcessTimeMs  float64 `json:"process_time_ms"`
}

type HealthResponse struct {
	Status               string `json:"status"`
	Version              string `json:"version"`
	VectorStoreConnected bool   `json:"vector_store_connected"`
	// MilvusConnected mirrors VectorStoreConnected for older health checks.
	MilvusConnected      bool   `json:"milvus_connected"`
}

type ProfileResponse struct {
	UserID  string `json:"user_id"`
	Profile string `json:"profile"`
}

type HistoryResponse struct {
	UserID  string   `json:"user_id"`
	Recent  []string `json:"recent"`
	Summary string   `json:"summary"`
}
