package llmadapter

import (
	"os"
	"strings"
	"time"

	"github.com/oldnordic/odincode/internal/config"
	"github.com/oldnordic/odincode/internal/odinerrors"
)

// NewFromConfig builds the Adapter a session should talk to, based on
// the decoded adapter section of config.toml (plus env overlay).
// mode="disabled" fails fast rather than returning a silently
// no-op adapter, so a misconfigured deployment surfaces immediately
// instead of at the first chat turn.
func NewFromConfig(cfg config.AdapterConfig) (Adapter, error) {
	if cfg.Mode == "disabled" {
		return nil, odinerrors.New(odinerrors.KindConfiguration, "llm mode is disabled")
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	switch cfg.Provider {
	case "", "stub":
		return NewStubAdapter(""), nil
	case "ollama":
		host, port := parseOllamaHost(cfg.BaseURL)
		if cfg.Model == "" {
			return nil, odinerrors.New(odinerrors.KindConfiguration, "missing 'model' for ollama adapter")
		}
		return newOllamaAdapter(host, port, cfg.Model, NewHTTPTransport(timeout)), nil
	case "openai":
		return newExternalAdapter("openai", cfg, timeout)
	case "glm":
		return newExternalAdapter("glm", cfg, timeout)
	default:
		return nil, odinerrors.New(odinerrors.KindConfiguration, "unknown provider: "+cfg.Provider)
	}
}

func newExternalAdapter(name string, cfg config.AdapterConfig, timeout time.Duration) (Adapter, error) {
	if cfg.BaseURL == "" {
		return nil, odinerrors.New(odinerrors.KindConfiguration, "missing 'base_url' for "+name+" adapter")
	}
	if cfg.Model == "" {
		return nil, odinerrors.New(odinerrors.KindConfiguration, "missing 'model' for "+name+" adapter")
	}
	if cfg.APIKey == "" {
		return nil, odinerrors.New(odinerrors.KindConfiguration, "missing 'api_key' for "+name+" adapter")
	}
	apiKey := resolveEnvVar(cfg.APIKey)
	return newOpenAICompatibleAdapter(name, cfg.BaseURL, cfg.Model, apiKey, NewHTTPTransport(timeout)), nil
}

// resolveEnvVar follows the "env:NAME" indirection used throughout
// this codebase's config values: a literal value passes through
// unchanged, while "env:NAME" is resolved against the process
// environment at construction time so secrets never live in
// config.toml itself.
func resolveEnvVar(value string) string {
	name, ok := strings.CutPrefix(value, "env:")
	if !ok {
		return value
	}
	if resolved, ok := os.LookupEnv(name); ok {
		return resolved
	}
	return value
}

// parseOllamaHost splits a "host:port" BaseURL into its parts,
// defaulting to Ollama's own conventional bind address when unset.
func parseOllamaHost(baseURL string) (host, port string) {
	host, port = "127.0.0.1", "11434"
	if baseURL == "" {
		return host, port
	}
	if h, p, ok := strings.Cut(baseURL, ":"); ok {
		host, port = h, p
	} else {
		host = baseURL
	}
	return host, port
}
