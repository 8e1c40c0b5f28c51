package llm

import (
	"context"
	"fmt"
)

type Config struct {
	// Provider is one of "openai", "gemini", "anthropic" or "heuristic".
	Provider  string
	OpenAI    OpenAIConfig
	Gemini    GeminiConfig
	Anthropic AnthropicConfig
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

// NewProvider builds the configured provider. "heuristic" and "" return
// ErrNotConfigured so callers can fall back to local analysis.
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	var (
		p   Provider
		err error
	)
	switch cfg.Provider {
	case "", "heuristic":
		return nil, ErrNotConfigured
	case "openai":
		p, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		p, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "anthropic":
		p, err = NewAnthropicProvider(cfg.Anthropic)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	return p, nil
}

func resolveModel(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
