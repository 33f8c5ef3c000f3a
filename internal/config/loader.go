package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Load reads db_root/config.toml (if present) and overlays environment
// variables, mirroring the way provider keys are resolved from multiple
// env vars across this codebase. A missing config.toml is not an error:
// Load falls back to defaults plus whatever the environment supplies,
// since a session may run entirely off env vars (e.g. in CI).
func Load(dbRoot string) (Config, error) {
	// Use Overload so a local .env can deterministically override the
	// surrounding shell environment during development.
	_ = godotenv.Overload()

	cfg := Config{DBRoot: dbRoot}

	path := filepath.Join(dbRoot, "config.toml")
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if decErr := toml.Unmarshal(data, &cfg); decErr != nil {
			return Config{}, fmt.Errorf("decode %s: %w", path, decErr)
		}
	case os.IsNotExist(err):
		// optional
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	overlayEnv(&cfg)
	cfg.applyDefaults()

	resolved, err := resolveAPIKey(cfg.Adapter.APIKey)
	if err != nil {
		return Config{}, err
	}
	cfg.Adapter.APIKey = resolved

	return cfg, nil
}

func overlayEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("ODINCODE_PROVIDER")); v != "" {
		cfg.Adapter.Provider = v
	}
	if v := strings.TrimSpace(os.Getenv("ODINCODE_BASE_URL")); v != "" {
		cfg.Adapter.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("ODINCODE_MODEL")); v != "" {
		cfg.Adapter.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("ODINCODE_API_KEY")); v != "" {
		cfg.Adapter.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("ODINCODE_LOG_PATH")); v != "" {
		cfg.LogPath = v
	}
	if v := strings.TrimSpace(os.Getenv("ODINCODE_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
}

// resolveAPIKey resolves the "env:NAME" indirection to the named
// environment variable's value. A literal key passes through unchanged.
func resolveAPIKey(key string) (string, error) {
	const prefix = "env:"
	if !strings.HasPrefix(key, prefix) {
		return key, nil
	}
	name := strings.TrimPrefix(key, prefix)
	v, ok := os.LookupEnv(name)
	if !ok {
		return "", fmt.Errorf("api_key references env var %q which is not set", name)
	}
	return v, nil
}

// ResolveDBRoot implements the CLI's db_root precedence: explicit flag,
// then ODINCODE_HOME/db, then the current working directory.
func ResolveDBRoot(flagValue string) (string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return filepath.Abs(flagValue)
	}
	if home := strings.TrimSpace(os.Getenv("ODINCODE_HOME")); home != "" {
		return filepath.Abs(filepath.Join(home, "db"))
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve cwd as db_root: %w", err)
	}
	return cwd, nil
}
