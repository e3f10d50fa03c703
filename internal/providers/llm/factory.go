package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/ragmemory/internal/config"
	"github.com/sandevgo/ragmemory/internal/core"
	"github.com/sandevgo/ragmemory/pkg/log"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	openRouterBaseURL    = "https://openrouter.ai/api/v1"
	ollamaBaseURL        = "http://localhost:11434/v1"
)

// ResolveBaseURL picks the endpoint for a provider. An explicit MY_API_BASE
// always wins over the provider default.
func ResolveBaseURL(provider, configured string) (string, error) {
	explicit := configured != "" && configured != defaultOpenAIBaseURL

	switch provider {
	case "openai", "custom":
		if configured == "" {
			return defaultOpenAIBaseURL, nil
		}
		return configured, nil
	case "openrouter":
		if explicit {
			return configured, nil
		}
		return openRouterBaseURL, nil
	case "ollama":
		if explicit {
			return configured, nil
		}
		return ollamaBaseURL, nil
	default:
		return "", fmt.Errorf("%w: unknown llm provider: %s", core.ErrInvalidConfig, provider)
	}
}

// NewChatModel creates the chat client used for summaries and profiles.
func NewChatModel(ctx context.Context, cfg *config.LLMConfig) (*Client, error) {
	baseURL, err := ResolveBaseURL(cfg.Provider, cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	log.FromCtx(ctx).Info().
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Str("base_url", baseURL).
		Msg("starting llm provider")

	return NewClient(Config{
		BaseURL:   baseURL,
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		Timeout:   cfg.Timeout,
	}), nil
}
