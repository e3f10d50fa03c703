package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/ragmemory/internal/core"
)

type span struct {
	content    string
	start, end int
}

func TestChunker_Chunk(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		cfg      ChunkerConfig
		expected []span
	}{
		{
			name:     "Empty input",
			text:     "",
			cfg:      DefaultChunkerConfig(),
			expected: []span{},
		},
		{
			name:     "Whitespace only",
			text:     "   \n\t   ",
			cfg:      DefaultChunkerConfig(),
			expected: []span{},
		},
		{
			name:     "Single chunk",
			text:     "  Hello world. How are you?  ",
			cfg:      ChunkerConfig{Size: 100, Overlap: 10, MinSize: 1},
			expected: []span{{"Hello world. How are you?", 0, 25}},
		},
		{
			name: "Split with overlap",
			text: "Hello world. This is a test. Bye!",
			cfg:  ChunkerConfig{Size: 20, Overlap: 5, MinSize: 1},
			expected: []span{
				{"Hello world.", 0, 12},
				{"orld. This is a test.", 7, 28},
				{"test. Bye!", 23, 33},
			},
		},
		{
			name:     "Long sentence is kept whole",
			text:     "abcdefghijklmnop.",
			cfg:      ChunkerConfig{Size: 10, Overlap: 2, MinSize: 1},
			expected: []span{{"abcdefghijklmnop.", 0, 17}},
		},
		{
			name:     "Short chunk is dropped",
			text:     "Hi. Hello there friend.",
			cfg:      ChunkerConfig{Size: 10, Overlap: 0, MinSize: 5},
			expected: []span{{"Hello there friend.", 3, 23}},
		},
		{
			name: "CJK delimiters and rune offsets",
			text: "你好。世界！",
			cfg:  ChunkerConfig{Size: 3, Overlap: 1, MinSize: 1},
			expected: []span{
				{"你好。", 0, 3},
				{"。世界！", 2, 6},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewChunker(tt.cfg)
			require.NoError(t, err)

			chunks := c.Chunk(tt.text, nil)
			require.Len(t, chunks, len(tt.expected))
			for i, want := range tt.expected {
				assert.Equal(t, want.content, chunks[i].Content, "chunk %d content", i)
				assert.Equal(t, want.start, chunks[i].StartOffset, "chunk %d start", i)
				assert.Equal(t, want.end, chunks[i].EndOffset, "chunk %d end", i)
				assert.Equal(t, i, chunks[i].Index)
			}
		})
	}
}

func TestChunker_OffsetsReconstructText(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 30) +
		"Пользователь живёт в Берлине! 我喜欢咖啡。Is that all?\nYes."
	cfg := ChunkerConfig{Size: 80, Overlap: 16, MinSize: 1}

	c, err := NewChunker(cfg)
	require.NoError(t, err)

	runes := []rune(strings.TrimSpace(text))
	chunks := c.Chunk(text, nil)
	require.Greater(t, len(chunks), 2)

	for i, ch := range chunks {
		require.LessOrEqual(t, ch.EndOffset, len(runes))
		window := string(runes[ch.StartOffset:ch.EndOffset])
		assert.Equal(t, strings.TrimSpace(window), ch.Content, "chunk %d", i)

		if i == 0 {
			continue
		}
		prev := chunks[i-1]
		// Each window starts with the tail of the previous one.
		assert.Equal(t, prev.EndOffset-cfg.Overlap, ch.StartOffset, "chunk %d overlap", i)
	}

	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, len(runes), chunks[len(chunks)-1].EndOffset)
}

func TestChunker_MetadataIsCopied(t *testing.T) {
	c, err := NewChunker(ChunkerConfig{Size: 20, Overlap: 5, MinSize: 1})
	require.NoError(t, err)

	meta := map[string]string{"source": "upload"}
	chunks := c.Chunk("Hello world. This is a test. Bye!", meta)
	require.Len(t, chunks, 3)

	chunks[0].Metadata["source"] = "changed"
	assert.Equal(t, "upload", chunks[1].Metadata["source"])
	assert.Equal(t, "upload", meta["source"])
}

func TestChunker_ChunkBatchRenumbers(t *testing.T) {
	c, err := NewChunker(ChunkerConfig{Size: 20, Overlap: 5, MinSize: 1})
	require.NoError(t, err)

	chunks := c.ChunkBatch([]string{"Hello world. This is a test. Bye!", "", "Second text here."}, nil)
	require.Len(t, chunks, 4)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
	}
	assert.Equal(t, "Second text here.", chunks[3].Content)
	assert.Equal(t, 0, chunks[3].StartOffset)
}

func TestNewChunker_InvalidConfig(t *testing.T) {
	tests := []ChunkerConfig{
		{Size: 10, Overlap: 10},
		{Size: 10, Overlap: 20},
		{Size: 0, Overlap: 0},
		{Size: 10, Overlap: -1},
	}
	for _, cfg := range tests {
		_, err := NewChunker(cfg)
		assert.ErrorIs(t, err, core.ErrInvalidConfig, "%+v", cfg)
	}
}

type runeCounter struct{}

func (runeCounter) Count(text string) int { return len([]rune(text)) }

func TestChunker_TokenCounter(t *testing.T) {
	c, err := NewChunker(ChunkerConfig{Size: 100, Overlap: 0, MinSize: 1}, WithTokenCounter(runeCounter{}))
	require.NoError(t, err)

	chunks := c.Chunk("Hello world.", nil)
	require.Len(t, chunks, 1)
	assert.Equal(t, 12, chunks[0].TokenCount)
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"a. b! c? d", []string{"a.", " b!", " c?", " d"}},
		{"line\nnext", []string{"line\n", "next"}},
		{"你好。世界！", []string{"你好。", "世界！"}},
		{"...", []string{".", ".", "."}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitSentences(tt.text), tt.text)
	}
}
