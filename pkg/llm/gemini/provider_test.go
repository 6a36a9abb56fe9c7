package gemini

import (
	"context"
	"testing"

	"tarot-oracle-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestBuildRequest(t *testing.T) {
	opts := llm.NewOptions(0.7, llm.WithJSONMode(), llm.WithTemperature(0), llm.WithMaxTokens(20))
	contents, config := buildRequest([]llm.Message{
		{Role: llm.RoleSystem, Content: "Eres un oráculo"},
		{Role: llm.RoleUser, Content: "hola"},
		{Role: llm.RoleAssistant, Content: "bienvenida"},
	}, opts)

	require.Len(t, contents, 2)
	assert.Equal(t, string(genai.RoleUser), contents[0].Role)
	assert.Equal(t, string(genai.RoleModel), contents[1].Role)
	assert.Equal(t, "bienvenida", contents[1].Parts[0].Text)

	require.NotNil(t, config.SystemInstruction)
	assert.Equal(t, "Eres un oráculo", config.SystemInstruction.Parts[0].Text)
	require.NotNil(t, config.Temperature)
	assert.Equal(t, float32(0), *config.Temperature)
	assert.Equal(t, int32(20), config.MaxOutputTokens)
	assert.Equal(t, "application/json", config.ResponseMIMEType)
}

func TestBuildRequest_PlainText(t *testing.T) {
	_, config := buildRequest([]llm.Message{{Role: llm.RoleUser, Content: "hola"}}, llm.NewOptions(0.7))
	assert.Nil(t, config.SystemInstruction)
	assert.Empty(t, config.ResponseMIMEType)
	assert.Zero(t, config.MaxOutputTokens)
}

func TestNewGeminiProvider_RequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), "", "")
	assert.Error(t, err)
}
