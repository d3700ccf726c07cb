// Package observability provides structured logging, metrics and tracing
// for the emitter: slog-based log helpers, OpenTelemetry metrics and spans.
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
)

// EnrichLogger scopes a logger to one emission.
// Returns a new logger with event_type and emission_id fields.
func EnrichLogger(logger *slog.Logger, eventType, emissionID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("event_type", eventType),
		slog.String("emission_id", emissionID),
	)
}

// LogEmitStart logs the start of an emission.
func LogEmitStart(logger *slog.Logger, listeners int) {
	if logger == nil {
		return
	}
	logger.Debug("emission starting",
		slog.Int("listeners", listeners),
	)
}

// LogEmitComplete logs a successful emission.
func LogEmitComplete(logger *slog.Logger, results int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("emission completed",
		slog.Int("results", results),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogEmitError logs a failed emission.
func LogEmitError(logger *slog.Logger, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("emission failed",
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogListenerLeak logs the possible-listener-leak diagnostic emitted when a
// slot exceeds its warning threshold. Diagnostic only, never an error.
func LogListenerLeak(logger *slog.Logger, eventType string, count, max int) {
	if logger == nil {
		return
	}
	logger.Warn("possible listener leak detected",
		slog.String("event_type", eventType),
		slog.Int("listeners", count),
		slog.Int("max_listeners", max),
	)
}

// LogJournalError logs a failure to record a failed emission.
func LogJournalError(logger *slog.Logger, err error) {
	if logger == nil {
		return
	}
	logger.Warn("journal record failed",
		slog.String("error", err.Error()),
	)
}
