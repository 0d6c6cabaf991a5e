package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosspost-dev/go-crosspost/internal/config"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("", env(nil))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crosspost.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: DEBUG
  format: json
schema:
  dir: /etc/crosspost/schemas
converters:
  dsn: file:tags.db
concurrency: 4
`), 0o644))

	cfg, err := config.Load(path, env(map[string]string{
		"CROSSPOST_LOG_FORMAT":    "console",
		"CROSSPOST_CONCURRENCY":   "2",
		"CROSSPOST_TEMPLATES_DIR": "/srv/templates",
	}))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, filepath.Clean("/etc/crosspost/schemas"), cfg.Schema.Dir)
	assert.Equal(t, "file:tags.db", cfg.Converters.DSN)
	assert.Equal(t, filepath.Clean("/srv/templates"), cfg.Templates.Dir)
	assert.Equal(t, 2, cfg.Concurrency)
}

func TestLoadExpandsRelativePaths(t *testing.T) {
	cfg, err := config.Load("", env(map[string]string{"CROSSPOST_PRESETS": "presets.json"}))
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(cfg.Presets), cfg.Presets)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"level":       {"CROSSPOST_LOG_LEVEL": "verbose"},
		"format":      {"CROSSPOST_LOG_FORMAT": "xml"},
		"concurrency": {"CROSSPOST_CONCURRENCY": "many"},
		"negative":    {"CROSSPOST_CONCURRENCY": "-1"},
		"two schemas": {"CROSSPOST_SCHEMA_DIR": "/a", "CROSSPOST_SCHEMA_OPENAPI": "/b.yaml"},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load("", env(values))
			require.Error(t, err)
		})
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"), env(nil))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("log: ["), 0o644))
	_, err = config.Load(bad, env(nil))
	require.Error(t, err)
}
