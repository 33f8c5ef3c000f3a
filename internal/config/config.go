// Package config loads OdinCode's on-disk configuration (config.toml under
// db_root) and overlays environment variables, following the same
// Load()-returns-(Config, error) shape used throughout this codebase.
package config

// AdapterConfig describes how to reach the configured LLM provider.
type AdapterConfig struct {
	// Provider selects the adapter: "openai", "glm", "ollama", or "stub".
	Provider string `toml:"provider"`
	// Mode, when set to "disabled", makes adapter construction fail fast.
	Mode string `toml:"mode,omitempty"`
	// BaseURL is the HTTP(S) endpoint for chat completions.
	BaseURL string `toml:"base_url,omitempty"`
	Model   string `toml:"model,omitempty"`
	// APIKey may be a literal value or the indirection "env:NAME", resolved
	// against the process environment at adapter construction time.
	APIKey string `toml:"api_key,omitempty"`
	// TimeoutSeconds bounds a single adapter HTTP call. Zero means the
	// default of 30 seconds.
	TimeoutSeconds int `toml:"timeout_seconds,omitempty"`
}

// LoopConfig bounds the multi-step tool loop.
type LoopConfig struct {
	// MaxSteps is the configured cap on loop iterations. Zero means the
	// default of 10. The chat loop takes its cap from the maxSteps
	// argument of chatloop.New and does not read this field.
	MaxSteps int `toml:"max_steps,omitempty"`
	// FreshGroundingMillis is the configured staleness threshold for
	// mutation-mode grounding. Zero means the default of 10000ms. The
	// grounding check (router.TimelinePosition.RequiresGrounding) uses a
	// fixed 10000ms and does not read this field.
	FreshGroundingMillis int64 `toml:"fresh_grounding_millis,omitempty"`
}

// Config is the full decoded shape of config.toml plus environment overlay.
type Config struct {
	// DBRoot is the directory holding execution_log.db, codegraph.db,
	// config.toml, and plans/. Resolved by the CLI before Load is called;
	// stored here for components that need to re-derive sibling paths.
	DBRoot string `toml:"-"`

	Adapter AdapterConfig `toml:"adapter"`
	Loop    LoopConfig    `toml:"loop"`

	LogPath  string `toml:"log_path,omitempty"`
	LogLevel string `toml:"log_level,omitempty"`
}

func (c *Config) applyDefaults() {
	if c.Adapter.Provider == "" {
		c.Adapter.Provider = "stub"
	}
	if c.Adapter.TimeoutSeconds <= 0 {
		c.Adapter.TimeoutSeconds = 30
	}
	if c.Loop.MaxSteps <= 0 {
		c.Loop.MaxSteps = 10
	}
	if c.Loop.FreshGroundingMillis <= 0 {
		c.Loop.FreshGroundingMillis = 10_000
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
