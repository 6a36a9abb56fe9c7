package factory

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tarot-oracle-be/internal/pkg/logger"
	"tarot-oracle-be/pkg/llm"
	"tarot-oracle-be/pkg/llm/gemini"
	"tarot-oracle-be/pkg/llm/ollama"
	"tarot-oracle-be/pkg/llm/openrouter"
)

type Config struct {
	Provider       string
	Model          string
	FallbackModels []string
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
}

func NewLLMProvider(ctx context.Context, cfg Config, log logger.ILogger) (llm.LLMProvider, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		p := ollama.NewOllamaProvider(baseURL, cfg.Model)
		p.Client.Timeout = timeout
		return p, nil
	case "openrouter", "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s provider requires an API key", cfg.Provider)
		}
		return openrouter.NewOpenRouterProvider(
			cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.FallbackModels,
			&http.Client{Timeout: timeout}, log,
		), nil
	case "gemini":
		return gemini.NewGeminiProvider(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
