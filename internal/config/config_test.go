package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SECTION_REVEAL_DELAY", "TITLE_WAIT", "CARD_DRAW_MODE", "CHAT_RATE_LIMIT", "LLM_FALLBACK_MODELS"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg := Load()
	assert.Equal(t, 800*time.Millisecond, cfg.Oracle.SectionRevealDelay)
	assert.Equal(t, 3*time.Second, cfg.Oracle.TitleWait)
	assert.Equal(t, 30*time.Minute, cfg.Oracle.AnonCacheTTL)
	assert.Equal(t, "client", cfg.Oracle.CardDrawMode)
	assert.Equal(t, 30, cfg.RateLimit.Chat)
	assert.Empty(t, cfg.Ai.FallbackModels)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SECTION_REVEAL_DELAY", "250")
	t.Setenv("TITLE_WAIT", "1500ms")
	t.Setenv("CARD_DRAW_MODE", "server")
	t.Setenv("CHAT_RATE_LIMIT", "5")
	t.Setenv("LLM_FALLBACK_MODELS", "a/b, c/d ,")
	t.Setenv("OTEL_ENABLED", "true")

	cfg := Load()
	assert.Equal(t, 250*time.Millisecond, cfg.Oracle.SectionRevealDelay)
	assert.Equal(t, 1500*time.Millisecond, cfg.Oracle.TitleWait)
	assert.Equal(t, "server", cfg.Oracle.CardDrawMode)
	assert.Equal(t, 5, cfg.RateLimit.Chat)
	assert.Equal(t, []string{"a/b", "c/d"}, cfg.Ai.FallbackModels)
	assert.True(t, cfg.App.OtelEnabled)
}

func TestLLMSelection(t *testing.T) {
	cfg := &Config{
		Ai:   AIConfig{LLMProvider: "ollama", OllamaBaseURL: "http://ollama:11434"},
		Keys: APIKeys{LLM: "router-key", GoogleGemini: "gemini-key"},
	}
	assert.Equal(t, "http://ollama:11434", cfg.LLMBase())
	assert.Equal(t, "router-key", cfg.LLMKey())

	cfg.Ai.LLMProvider = "gemini"
	assert.Equal(t, "gemini-key", cfg.LLMKey())
}
