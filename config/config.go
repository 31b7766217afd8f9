// Package config loads the service configuration from a YAML file with koanf.
// API keys come from the environment, never from the file.
package config

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/gantryai/gantry/core"
)

// Config is the full service configuration.
type Config struct {
	Listen string `yaml:"listen"`
	Store  Store  `yaml:"store"`
	Oracle Oracle `yaml:"oracle"`
	Log    Log    `yaml:"log"`
	// MaxSteps bounds oracle consultations plus capability invocations per
	// turn. Zero uses the default budget.
	MaxSteps int `yaml:"max_steps"`
}

// Store selects and parameterizes the persistence backends.
type Store struct {
	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend"`
	// SessionPath is the sqlite file for session history.
	SessionPath string `yaml:"session_path"`
	// RecordPath is the sqlite file for project/person records.
	RecordPath string `yaml:"record_path"`
}

// Oracle selects the decision oracle provider.
type Oracle struct {
	// Provider is "openai" or "anthropic".
	Provider string `yaml:"provider"`
	// Model overrides the provider's default model id.
	Model string `yaml:"model"`
	// APIKeyEnv names the environment variable holding the API key; defaults
	// to the provider's conventional variable.
	APIKeyEnv string `yaml:"api_key_env"`
}

// Log configures structured logging.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen:   ":8080",
		Store:    Store{Backend: "memory", SessionPath: "gantry_sessions.db", RecordPath: "gantry_records.db"},
		Oracle:   Oracle{Provider: "openai"},
		Log:      Log{Level: "info", Format: "text"},
		MaxSteps: core.DefaultMaxSteps,
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load config %q: %w", path, err)
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return Config{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown store backend %q (want memory or sqlite)", c.Store.Backend)
	}
	switch c.Oracle.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown oracle provider %q (want openai or anthropic)", c.Oracle.Provider)
	}
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	return nil
}

// APIKey resolves the provider API key from the environment. An empty result
// defers to the provider SDK's own environment handling.
func (c Config) APIKey() string {
	envVar := c.Oracle.APIKeyEnv
	if envVar == "" {
		switch c.Oracle.Provider {
		case "openai":
			envVar = "OPENAI_API_KEY"
		case "anthropic":
			envVar = "ANTHROPIC_API_KEY"
		}
	}
	return os.Getenv(envVar)
}
