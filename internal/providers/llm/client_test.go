package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/ragmemory/internal/core"
	"github.com/sandevgo/ragmemory/pkg/retry"
)

func fastRetry() *retry.Config {
	return &retry.Config{
		MaxAttempts:   3,
		BackoffFactor: 2,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
	}
}

func chatResponse(content string) string {
	return fmt.Sprintf(`{"id":"c1","object":"chat.completion","created":1,"model":"m",`+
		`"choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}]}`, content)
}

func newTestClient(url string) *Client {
	return NewClient(Config{
		BaseURL: url + "/v1",
		APIKey:  "sk-test",
		Model:   "test-model",
		Timeout: time.Second,
		Retry:   fastRetry(),
	})
}

func TestClient_Complete(t *testing.T) {
	var got struct {
		Model    string         `json:"model"`
		Messages []core.Message `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatResponse("a summary"))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL).Complete(context.Background(), []core.Message{
		{Role: core.RoleSystem, Content: "be brief"},
		{Role: core.RoleUser, Content: "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "a summary", out)
	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "hello", got.Messages[1].Content)
}

func TestClient_Complete_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
			return
		}
		fmt.Fprint(w, chatResponse("ok"))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL).Complete(context.Background(), []core.Message{{Role: "user", Content: "x"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Complete_Exhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"error":{"message":"down","type":"server_error"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), []core.Message{{Role: "user", Content: "x"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrLLMClient)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Complete_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), []core.Message{{Role: "user", Content: "x"}})
	assert.ErrorIs(t, err, core.ErrLLMClient)
	assert.Equal(t, int32(1), calls.Load())
}

func TestResolveBaseURL(t *testing.T) {
	tests := []struct {
		provider   string
		configured string
		want       string
		wantErr    bool
	}{
		{"openai", "https://api.openai.com/v1", "https://api.openai.com/v1", false},
		{"custom", "http://gpu:8000/v1", "http://gpu:8000/v1", false},
		{"openrouter", "https://api.openai.com/v1", openRouterBaseURL, false},
		{"ollama", "", ollamaBaseURL, false},
		{"ollama", "http://box:11434/v1", "http://box:11434/v1", false},
		{"anthropic", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.provider+"_"+tt.configured, func(t *testing.T) {
			got, err := ResolveBaseURL(tt.provider, tt.configured)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewClient_CopiesRetryConfig(t *testing.T) {
	rc := fastRetry()

	NewClient(Config{Model: "m", Timeout: time.Second, Retry: rc})

	assert.Zero(t, rc.AttemptTimeout)
	assert.Nil(t, rc.Retryable)
}
