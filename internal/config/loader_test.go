package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithoutConfigFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "stub", cfg.Adapter.Provider)
	assert.Equal(t, 30, cfg.Adapter.TimeoutSeconds)
	assert.Equal(t, 10, cfg.Loop.MaxSteps)
	assert.Equal(t, int64(10_000), cfg.Loop.FreshGroundingMillis)
	assert.Equal(t, dir, cfg.DBRoot)
}

func TestLoadReadsTOMLFile(t *testing.T) {
	dir := t.TempDir()
	toml := `
[adapter]
provider = "openai"
base_url = "https://api.example.com/v1"
model = "gpt-4o-mini"
api_key = "literal-key"

[loop]
max_steps = 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Adapter.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Adapter.Model)
	assert.Equal(t, "literal-key", cfg.Adapter.APIKey)
	assert.Equal(t, 5, cfg.Loop.MaxSteps)
}

func TestLoadResolvesEnvIndirectedAPIKey(t *testing.T) {
	dir := t.TempDir()
	toml := "[adapter]\napi_key = \"env:ODINCODE_TEST_KEY\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o644))
	t.Setenv("ODINCODE_TEST_KEY", "resolved-secret")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "resolved-secret", cfg.Adapter.APIKey)
}

func TestLoadRejectsUnresolvableEnvIndirection(t *testing.T) {
	dir := t.TempDir()
	toml := "[adapter]\napi_key = \"env:ODINCODE_DOES_NOT_EXIST\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o644))
	os.Unsetenv("ODINCODE_DOES_NOT_EXIST")

	_, err := Load(dir)
	require.Error(t, err)
}

func TestResolveDBRootPrecedence(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		got, err := ResolveDBRoot("/tmp/explicit")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/explicit", got)
	})

	t.Run("falls back to ODINCODE_HOME", func(t *testing.T) {
		t.Setenv("ODINCODE_HOME", "/tmp/home")
		got, err := ResolveDBRoot("")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/home/db", got)
	})

	t.Run("falls back to cwd", func(t *testing.T) {
		os.Unsetenv("ODINCODE_HOME")
		got, err := ResolveDBRoot("")
		require.NoError(t, err)
		cwd, _ := os.Getwd()
		assert.Equal(t, cwd, got)
	})
}
