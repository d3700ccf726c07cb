package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records emitter metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEmit records one emission with its listener count, duration and
	// error status.
	RecordEmit(ctx context.Context, eventType string, listeners int, duration time.Duration, err error)

	// RecordRegistration records a listener registration and the new total.
	RecordRegistration(ctx context.Context, eventType string, total int)

	// RecordRemoval records a listener removal and the new total.
	RecordRemoval(ctx context.Context, eventType string, total int)

	// RecordLeakWarning records a max-listener diagnostic.
	RecordLeakWarning(ctx context.Context, eventType string, count int)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	emissions     metric.Int64Counter
	emitLatency   metric.Float64Histogram
	emitErrors    metric.Int64Counter
	registrations metric.Int64Counter
	removals      metric.Int64Counter
	leakWarnings  metric.Int64Counter
	listeners     metric.Int64Gauge
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("emitter")

	emissions, err := meter.Int64Counter("emitter.emissions",
		metric.WithDescription("Number of emissions"),
	)
	if err != nil {
		return nil, err
	}

	emitLatency, err := meter.Float64Histogram("emitter.emit.latency_ms",
		metric.WithDescription("Emission latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	emitErrors, err := meter.Int64Counter("emitter.emit.errors",
		metric.WithDescription("Number of failed emissions"),
	)
	if err != nil {
		return nil, err
	}

	registrations, err := meter.Int64Counter("emitter.registrations",
		metric.WithDescription("Number of listener registrations"),
	)
	if err != nil {
		return nil, err
	}

	removals, err := meter.Int64Counter("emitter.removals",
		metric.WithDescription("Number of listener removals"),
	)
	if err != nil {
		return nil, err
	}

	leakWarnings, err := meter.Int64Counter("emitter.leak_warnings",
		metric.WithDescription("Number of max-listener diagnostics"),
	)
	if err != nil {
		return nil, err
	}

	listeners, err := meter.Int64Gauge("emitter.listeners",
		metric.WithDescription("Total registered listeners"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		emissions:     emissions,
		emitLatency:   emitLatency,
		emitErrors:    emitErrors,
		registrations: registrations,
		removals:      removals,
		leakWarnings:  leakWarnings,
		listeners:     listeners,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordEmit records one emission.
func (m *otelMetrics) RecordEmit(ctx context.Context, eventType string, listeners int, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("event_type", eventType),
	}

	m.emissions.Add(ctx, 1, metric.WithAttributes(append(attrs,
		attribute.Int("listeners", listeners))...))
	m.emitLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.emitErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordRegistration records a listener registration.
func (m *otelMetrics) RecordRegistration(ctx context.Context, eventType string, total int) {
	attrs := []attribute.KeyValue{
		attribute.String("event_type", eventType),
	}
	m.registrations.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.listeners.Record(ctx, int64(total))
}

// RecordRemoval records a listener removal.
func (m *otelMetrics) RecordRemoval(ctx context.Context, eventType string, total int) {
	attrs := []attribute.KeyValue{
		attribute.String("event_type", eventType),
	}
	m.removals.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.listeners.Record(ctx, int64(total))
}

// RecordLeakWarning records a max-listener diagnostic.
func (m *otelMetrics) RecordLeakWarning(ctx context.Context, eventType string, count int) {
	m.leakWarnings.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.Int("listeners", count),
	))
}
