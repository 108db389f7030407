// Package config loads and saves credence configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all credence configuration.
type Config struct {
	// Rule file settings
	Rules RulesConfig `yaml:"rules"`

	// Inference fixpoint settings
	Inference InferenceConfig `yaml:"inference"`

	// Session persistence
	Store StoreConfig `yaml:"store"`

	// Console behavior
	UI UIConfig `yaml:"ui"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// RulesConfig configures where rules are read from and how reloads
// behave.
type RulesConfig struct {
	Path       string `yaml:"path"`
	Watch      bool   `yaml:"watch"`
	DebounceMS int    `yaml:"debounce_ms"`
}

// InferenceConfig bounds the fixpoint driver.
type InferenceConfig struct {
	Tolerance float64 `yaml:"tolerance"`
	MaxPasses int     `yaml:"max_passes"`
}

// StoreConfig configures the SQLite session store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// UIConfig configures the interactive console.
type UIConfig struct {
	Theme          string `yaml:"theme"` // dark, light, auto
	ComplementFill bool   `yaml:"complement_fill"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Rules: RulesConfig{
			Path:       "rules.txt",
			Watch:      true,
			DebounceMS: 400,
		},
		Inference: InferenceConfig{
			Tolerance: 1e-9,
			MaxPasses: 50,
		},
		Store: StoreConfig{
			Path: "data/sessions.db",
		},
		UI: UIConfig{
			Theme:          "dark",
			ComplementFill: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file is not an
// error: the defaults are returned, with environment overrides still
// applied.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("CREDENCE_RULES"); path != "" {
		c.Rules.Path = path
	}
	if path := os.Getenv("CREDENCE_DB"); path != "" {
		c.Store.Path = path
	}
	if level := os.Getenv("CREDENCE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if theme := os.Getenv("CREDENCE_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if passes := os.Getenv("CREDENCE_MAX_PASSES"); passes != "" {
		if n, err := strconv.Atoi(passes); err == nil && n >= 1 {
			c.Inference.MaxPasses = n
		}
	}
}

// Validate reports the first configuration value that cannot work.
func (c *Config) Validate() error {
	if c.Rules.Path == "" {
		return fmt.Errorf("rules.path must not be empty")
	}
	if c.Rules.DebounceMS < 0 {
		return fmt.Errorf("rules.debounce_ms must not be negative")
	}
	if c.Inference.Tolerance <= 0 {
		return fmt.Errorf("inference.tolerance must be positive")
	}
	if c.Inference.MaxPasses < 1 {
		return fmt.Errorf("inference.max_passes must be at least 1")
	}
	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		return fmt.Errorf("ui.theme must be dark, light or auto, got %q", c.UI.Theme)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

// Debounce returns the reload debounce as a duration.
func (c *Config) Debounce() time.Duration {
	if c.Rules.DebounceMS <= 0 {
		return 400 * time.Millisecond
	}
	return time.Duration(c.Rules.DebounceMS) * time.Millisecond
}
