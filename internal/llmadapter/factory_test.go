package llmadapter

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oldnordic/odincode/internal/config"
)

func TestNewFromConfigDisabledReturnsError(t *testing.T) {
	_, err := NewFromConfig(config.AdapterConfig{Mode: "disabled"})
	assert.Error(t, err)
}

func TestNewFromConfigOpenAI(t *testing.T) {
	adapter, err := NewFromConfig(config.AdapterConfig{
		Provider: "openai",
		BaseURL:  "https://api.openai.com/v1",
		Model:    "gpt-4",
		APIKey:   "sk-test",
	})
	require.NoError(t, err)
	assert.Equal(t, "openai", adapter.ProviderName())
}

func TestNewFromConfigGLM(t *testing.T) {
	adapter, err := NewFromConfig(config.AdapterConfig{
		Provider: "glm",
		BaseURL:  "https://api.z.ai/api/coding/paas/v4",
		Model:    "GLM-4.7",
		APIKey:   "sk-test",
	})
	require.NoError(t, err)
	assert.Equal(t, "glm", adapter.ProviderName())
}

func TestNewFromConfigOllama(t *testing.T) {
	adapter, err := NewFromConfig(config.AdapterConfig{
		Provider: "ollama",
		BaseURL:  "127.0.0.1:11434",
		Model:    "codellama",
	})
	require.NoError(t, err)
	assert.Equal(t, "ollama", adapter.ProviderName())
}

func TestNewFromConfigStub(t *testing.T) {
	adapter, err := NewFromConfig(config.AdapterConfig{Provider: "stub"})
	require.NoError(t, err)
	assert.Equal(t, "stub", adapter.ProviderName())
}

func TestNewFromConfigUnknownProviderErrors(t *testing.T) {
	_, err := NewFromConfig(config.AdapterConfig{Provider: "unknown"})
	assert.Error(t, err)
}

func TestNewFromConfigMissingAPIKeyErrors(t *testing.T) {
	_, err := NewFromConfig(config.AdapterConfig{Provider: "openai", BaseURL: "https://api.openai.com/v1", Model: "gpt-4"})
	assert.Error(t, err)
}

func TestResolveEnvVarDirect(t *testing.T) {
	assert.Equal(t, "direct_value", resolveEnvVar("direct_value"))
}

func TestResolveEnvVarReference(t *testing.T) {
	os.Setenv("ODINCODE_TEST_API_KEY", "test_value")
	defer os.Unsetenv("ODINCODE_TEST_API_KEY")
	assert.Equal(t, "test_value", resolveEnvVar("env:ODINCODE_TEST_API_KEY"))
}

func TestResolveEnvVarMissingFallsBackToLiteral(t *testing.T) {
	assert.Equal(t, "env:ODINCODE_DOES_NOT_EXIST", resolveEnvVar("env:ODINCODE_DOES_NOT_EXIST"))
}
