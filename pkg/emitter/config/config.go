// Package config loads emitter settings from YAML or JSON files and turns
// them into an emitter.Config. It covers the process-facing knobs: the
// listener warning threshold, logging, metrics, tracing and the failure
// journal.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/asynckit/emitter/pkg/emitter"
	"github.com/asynckit/emitter/pkg/emitter/journal"
	"github.com/asynckit/emitter/pkg/emitter/observability"
)

// Journal drivers accepted by JournalSettings.Driver.
const (
	DriverNone   = ""
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Settings is the file-level configuration shape.
type Settings struct {
	// MaxListeners is the per-type warning threshold.
	// Zero uses the process-wide default.
	MaxListeners int `yaml:"max_listeners" json:"max_listeners"`

	// LogLevel is one of debug, info, warn, error. Default: info.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Metrics enables OpenTelemetry metrics.
	Metrics bool `yaml:"metrics" json:"metrics"`

	// Tracing enables OpenTelemetry tracing.
	Tracing bool `yaml:"tracing" json:"tracing"`

	// Journal configures the failure journal.
	Journal JournalSettings `yaml:"journal" json:"journal"`
}

// JournalSettings configures the failure journal backend.
type JournalSettings struct {
	// Driver selects the backend: "", "memory" or "sqlite".
	Driver string `yaml:"driver" json:"driver"`

	// Path is the SQLite database path. Required for the sqlite driver.
	Path string `yaml:"path" json:"path"`

	// MaxSize caps the memory journal. Zero uses journal.DefaultMaxSize.
	MaxSize int `yaml:"max_size" json:"max_size"`
}

// Default returns the settings used when no file is provided.
func Default() Settings {
	return Settings{
		LogLevel: "info",
	}
}

// Validate checks the settings for contradictions.
func (s Settings) Validate() error {
	if s.MaxListeners < 0 {
		return fmt.Errorf("max_listeners must not be negative: %d", s.MaxListeners)
	}
	if _, err := s.slogLevel(); err != nil {
		return err
	}
	switch s.Journal.Driver {
	case DriverNone, DriverMemory:
	case DriverSQLite:
		if s.Journal.Path == "" {
			return fmt.Errorf("journal driver %q requires a path", DriverSQLite)
		}
	default:
		return fmt.Errorf("unknown journal driver: %q", s.Journal.Driver)
	}
	if s.Journal.MaxSize < 0 {
		return fmt.Errorf("journal max_size must not be negative: %d", s.Journal.MaxSize)
	}
	return nil
}

// slogLevel maps LogLevel to a slog.Level.
func (s Settings) slogLevel() (slog.Level, error) {
	switch s.LogLevel {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %q", s.LogLevel)
	}
}

// Apply validates the settings and builds an emitter.Config from them.
// The returned config owns a journal.Store when one is configured; callers
// should close it via the config's Journal when done.
func (s Settings) Apply() (emitter.Config, error) {
	if err := s.Validate(); err != nil {
		return emitter.Config{}, err
	}

	level, _ := s.slogLevel()
	cfg := emitter.Config{
		MaxListeners: s.MaxListeners,
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})),
	}

	if s.Metrics {
		cfg.Metrics = observability.NewMetricsRecorder()
	}
	if s.Tracing {
		cfg.Spans = observability.NewSpanManager()
	}

	switch s.Journal.Driver {
	case DriverMemory:
		cfg.Journal = journal.NewMemoryStore(s.Journal.MaxSize)
	case DriverSQLite:
		store, err := journal.NewSQLiteStore(s.Journal.Path)
		if err != nil {
			return emitter.Config{}, fmt.Errorf("open journal: %w", err)
		}
		cfg.Journal = store
	}

	return cfg, nil
}
