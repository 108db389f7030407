package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credence.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rules:
  path: examples/weather.rules
inference:
  max_passes: 10
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "examples/weather.rules", cfg.Rules.Path)
	assert.Equal(t, 10, cfg.Inference.MaxPasses)
	// Everything the file is silent about keeps its default.
	assert.Equal(t, 1e-9, cfg.Inference.Tolerance)
	assert.True(t, cfg.Rules.Watch)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credence.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules: [broken"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("CREDENCE_RULES overrides path", func(t *testing.T) {
		t.Setenv("CREDENCE_RULES", "/etc/credence/weather.rules")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "/etc/credence/weather.rules", cfg.Rules.Path)
	})

	t.Run("CREDENCE_DB overrides store path", func(t *testing.T) {
		t.Setenv("CREDENCE_DB", "/var/lib/credence.db")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "/var/lib/credence.db", cfg.Store.Path)
	})

	t.Run("CREDENCE_MAX_PASSES accepts sane integers only", func(t *testing.T) {
		t.Setenv("CREDENCE_MAX_PASSES", "80")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, 80, cfg.Inference.MaxPasses)

		t.Setenv("CREDENCE_MAX_PASSES", "zero")
		cfg = DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, 50, cfg.Inference.MaxPasses)

		t.Setenv("CREDENCE_MAX_PASSES", "0")
		cfg = DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, 50, cfg.Inference.MaxPasses)
	})

	t.Run("overrides apply when the file is missing", func(t *testing.T) {
		t.Setenv("CREDENCE_LOG_LEVEL", "debug")
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "credence.yaml")

	cfg := DefaultConfig()
	cfg.Rules.Path = "examples/weather.rules"
	cfg.UI.ComplementFill = true
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty rules path", func(c *Config) { c.Rules.Path = "" }},
		{"negative debounce", func(c *Config) { c.Rules.DebounceMS = -1 }},
		{"zero tolerance", func(c *Config) { c.Inference.Tolerance = 0 }},
		{"zero passes", func(c *Config) { c.Inference.MaxPasses = 0 }},
		{"unknown theme", func(c *Config) { c.UI.Theme = "solarized" }},
		{"unknown level", func(c *Config) { c.Logging.Level = "trace" }},
		{"unknown format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
}

func TestDebounce(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 400*time.Millisecond, cfg.Debounce())

	cfg.Rules.DebounceMS = 150
	assert.Equal(t, 150*time.Millisecond, cfg.Debounce())

	cfg.Rules.DebounceMS = 0
	assert.Equal(t, 400*time.Millisecond, cfg.Debounce())
}
