package vector

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sandevgo/ragmemory/internal/core"
)

const (
	fieldUserID    = "user_id"
	fieldContent   = "content"
	fieldTimestamp = "timestamp"
)

func validateSearch(userID string, vector []float32, topK int) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", core.ErrInvalidRequest)
	}
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty query vector", core.ErrInvalidRequest)
	}
	if topK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", core.ErrInvalidRequest)
	}
	return nil
}

// checkBatch reports whether an insert has anything consistent to write.
func checkBatch(logger *zerolog.Logger, contents []string, embeddings [][]float32) bool {
	if len(contents) != len(embeddings) {
		logger.Warn().
			Int("contents", len(contents)).
			Int("embeddings", len(embeddings)).
			Msg("insert skipped, contents and embeddings differ in length")
		return false
	}
	return len(contents) > 0
}
