package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asynckit/emitter/pkg/emitter/config"
)

const yamlSettings = `
max_listeners: 20
log_level: debug
metrics: true
journal:
  driver: memory
  max_size: 500
`

const jsonSettings = `{
  "max_listeners": 20,
  "log_level": "debug",
  "tracing": true,
  "journal": {"driver": "sqlite", "path": "/tmp/journal.db"}
}`

func TestFromYAML(t *testing.T) {
	t.Run("parses all fields", func(t *testing.T) {
		s, err := config.FromYAML([]byte(yamlSettings))
		require.NoError(t, err)
		assert.Equal(t, 20, s.MaxListeners)
		assert.Equal(t, "debug", s.LogLevel)
		assert.True(t, s.Metrics)
		assert.Equal(t, config.DriverMemory, s.Journal.Driver)
		assert.Equal(t, 500, s.Journal.MaxSize)
	})

	t.Run("missing fields keep defaults", func(t *testing.T) {
		s, err := config.FromYAML([]byte("max_listeners: 5"))
		require.NoError(t, err)
		assert.Equal(t, 5, s.MaxListeners)
		assert.Equal(t, "info", s.LogLevel)
	})

	t.Run("malformed yaml fails", func(t *testing.T) {
		_, err := config.FromYAML([]byte("max_listeners: [oops"))
		assert.Error(t, err)
	})

	t.Run("invalid settings fail validation", func(t *testing.T) {
		_, err := config.FromYAML([]byte("log_level: loud"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown log level")
	})
}

func TestFromJSON(t *testing.T) {
	t.Run("parses all fields", func(t *testing.T) {
		s, err := config.FromJSON([]byte(jsonSettings))
		require.NoError(t, err)
		assert.Equal(t, 20, s.MaxListeners)
		assert.True(t, s.Tracing)
		assert.Equal(t, config.DriverSQLite, s.Journal.Driver)
		assert.Equal(t, "/tmp/journal.db", s.Journal.Path)
	})

	t.Run("malformed json fails", func(t *testing.T) {
		_, err := config.FromJSON([]byte("{"))
		assert.Error(t, err)
	})
}

func TestFromFile(t *testing.T) {
	writeFile := func(t *testing.T, name, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("yaml extension", func(t *testing.T) {
		s, err := config.FromFile(writeFile(t, "settings.yaml", yamlSettings))
		require.NoError(t, err)
		assert.Equal(t, 20, s.MaxListeners)
	})

	t.Run("yml extension", func(t *testing.T) {
		s, err := config.FromFile(writeFile(t, "settings.yml", "log_level: warn"))
		require.NoError(t, err)
		assert.Equal(t, "warn", s.LogLevel)
	})

	t.Run("json extension", func(t *testing.T) {
		s, err := config.FromFile(writeFile(t, "settings.json", jsonSettings))
		require.NoError(t, err)
		assert.Equal(t, config.DriverSQLite, s.Journal.Driver)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := config.FromFile(writeFile(t, "settings.toml", ""))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported config file extension")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.FromFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}
