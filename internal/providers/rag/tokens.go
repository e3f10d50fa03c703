package rag

import (
	"context"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog"

	"github.com/sandevgo/ragmemory/pkg/log"
)

const encodingName = "cl100k_base"

// TiktokenCounter counts cl100k_base tokens. The encoding is loaded on first
// use; if loading fails every count is 0.
type TiktokenCounter struct {
	logger *zerolog.Logger
	once   sync.Once
	enc    *tiktoken.Tiktoken
}

func NewTiktokenCounter(ctx context.Context) *TiktokenCounter {
	return &TiktokenCounter{logger: log.FromCtx(ctx)}
}

func (t *TiktokenCounter) Count(text string) int {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(encodingName)
		if err != nil {
			t.logger.Warn().Err(err).Msg("tokenizer unavailable, token counts disabled")
			return
		}
		t.enc = enc
	})

	if t.enc == nil || text == "" {
		return 0
	}
	return len(t.enc.Encode(text, nil, nil))
}
