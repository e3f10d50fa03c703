package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sandevgo/ragmemory/internal/core"
)

const maxErrorBody = 512

type request struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

// Client calls a cross-encoder service that scores texts against a query.
type Client struct {
	client *http.Client
	url    string
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
}

// Rerank returns the raw scores. Indices refer to positions in texts.
func (c *Client) Rerank(ctx context.Context, query string, texts []string) ([]core.RerankResult, error) {
	data, err := json.Marshal(request{Query: query, Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal: %v", core.ErrReranker, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", core.ErrReranker, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request: %v", core.ErrReranker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: http %d: %s", core.ErrReranker, resp.StatusCode, string(body))
	}

	var results []core.RerankResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", core.ErrReranker, err)
	}
	return results, nil
}
