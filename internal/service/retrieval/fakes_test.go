package retrieval

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"time"

	"github.com/sandevgo/ragmemory/internal/core"
)

const fakeDim = 16

// wordEmbedder hashes every lowercase word into a bucket, so texts sharing
// words end up close.
type wordEmbedder struct {
	err   error
	calls int
}

func (e *wordEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = wordVector(t)
	}
	return out, nil
}

func (e *wordEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	v, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func wordVector(text string) []float32 {
	v := make([]float32, fakeDim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?:[]")
		if w == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%fakeDim]++
	}
	return v
}

// tableEmbedder returns fixed vectors and fails on unknown text.
type tableEmbedder map[string][]float32

func (e tableEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := e[t]
		if !ok {
			return nil, errBoom
		}
		out[i] = v
	}
	return out, nil
}

func (e tableEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	v, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

type fakeReranker struct {
	results []core.RerankResult
	err     error
	got     []string
}

func (r *fakeReranker) Rerank(_ context.Context, _ string, texts []string) ([]core.RerankResult, error) {
	r.got = texts
	return r.results, r.err
}

type failingStore struct{}

func (failingStore) Connect(context.Context) bool { return false }
func (failingStore) Insert(context.Context, string, []string, [][]float32, time.Time) int {
	return 0
}
func (failingStore) Search(context.Context, string, []float32, int) ([]core.SearchHit, error) {
	return nil, core.ErrVectorStoreUnavailable
}
func (failingStore) Ping(context.Context) bool { return false }
func (failingStore) Close() error              { return nil }

var errBoom = errors.New("boom")
