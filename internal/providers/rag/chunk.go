package rag

import (
	"fmt"
	"maps"
	"strings"
	"unicode/utf8"

	"github.com/sandevgo/ragmemory/internal/core"
)

const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 64
	DefaultMinChunkSize = 10
)

// sentenceEnders close a sentence. The delimiter stays with the sentence.
const sentenceEnders = "。！？.!?\n"

// TokenCounter reports the model token count of a text.
type TokenCounter interface {
	Count(text string) int
}

type ChunkerConfig struct {
	Size    int
	Overlap int
	MinSize int
}

func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		Size:    DefaultChunkSize,
		Overlap: DefaultChunkOverlap,
		MinSize: DefaultMinChunkSize,
	}
}

type ChunkerOption func(*Chunker)

func WithTokenCounter(tc TokenCounter) ChunkerOption {
	return func(c *Chunker) { c.tokens = tc }
}

// Chunker splits text into overlapping windows of at most Size runes,
// cutting on sentence boundaries. Sizes are measured in runes.
type Chunker struct {
	cfg    ChunkerConfig
	tokens TokenCounter
}

func NewChunker(cfg ChunkerConfig, opts ...ChunkerOption) (*Chunker, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive", core.ErrInvalidConfig)
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.Size {
		return nil, fmt.Errorf("%w: chunk overlap (%d) must be less than chunk size (%d)",
			core.ErrInvalidConfig, cfg.Overlap, cfg.Size)
	}

	c := &Chunker{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Chunker) Chunk(text string, metadata map[string]string) []core.TextChunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return []core.TextChunk{}
	}

	chunks := []core.TextChunk{}
	var window strings.Builder
	windowLen := 0
	start := 0
	pos := 0

	flush := func() string {
		emitted := window.String()
		if utf8.RuneCountInString(strings.TrimSpace(emitted)) >= c.cfg.MinSize {
			chunks = append(chunks, c.newChunk(emitted, len(chunks), start, windowLen, metadata))
		}
		return emitted
	}

	for _, sentence := range splitSentences(text) {
		sentenceLen := utf8.RuneCountInString(sentence)

		if windowLen+sentenceLen > c.cfg.Size && windowLen > 0 {
			emitted := flush()

			overlap := tail(emitted, c.cfg.Overlap)
			window.Reset()
			window.WriteString(overlap)
			windowLen = utf8.RuneCountInString(overlap)
			start = pos - windowLen
		}

		window.WriteString(sentence)
		windowLen += sentenceLen
		pos += sentenceLen
	}

	if windowLen > 0 {
		flush()
	}

	return chunks
}

// ChunkBatch chunks every text and numbers the result globally.
func (c *Chunker) ChunkBatch(texts []string, metadata map[string]string) []core.TextChunk {
	all := []core.TextChunk{}
	for _, text := range texts {
		for _, chunk := range c.Chunk(text, metadata) {
			chunk.Index = len(all)
			all = append(all, chunk)
		}
	}
	return all
}

func (c *Chunker) newChunk(raw string, index, start, length int, metadata map[string]string) core.TextChunk {
	content := strings.TrimSpace(raw)
	chunk := core.TextChunk{
		Content:     content,
		Index:       index,
		StartOffset: start,
		EndOffset:   start + length,
		Metadata:    maps.Clone(metadata),
	}
	if chunk.Metadata == nil {
		chunk.Metadata = map[string]string{}
	}
	if c.tokens != nil {
		chunk.TokenCount = c.tokens.Count(content)
	}
	return chunk
}

func splitSentences(text string) []string {
	var sentences []string
	last := 0
	for i, r := range text {
		if strings.ContainsRune(sentenceEnders, r) {
			end := i + utf8.RuneLen(r)
			sentences = append(sentences, text[last:end])
			last = end
		}
	}
	if last < len(text) {
		sentences = append(sentences, text[last:])
	}
	return sentences
}

// tail returns the last n runes of s, or all of s when it is shorter.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
