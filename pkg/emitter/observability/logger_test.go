package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHandler captures log records for testing.
type testHandler struct {
	buf   *bytes.Buffer
	level slog.Level
	attrs []slog.Attr
}

func newTestHandler() *testHandler {
	return &testHandler{
		buf:   &bytes.Buffer{},
		level: slog.LevelDebug,
	}
}

func (h *testHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *testHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	for _, attr := range h.attrs {
		data[attr.Key] = attr.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})
	return json.NewEncoder(h.buf).Encode(data)
}

func (h *testHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newH := &testHandler{
		buf:   h.buf,
		level: h.level,
		attrs: make([]slog.Attr, len(h.attrs)+len(attrs)),
	}
	copy(newH.attrs, h.attrs)
	copy(newH.attrs[len(h.attrs):], attrs)
	return newH
}

func (h *testHandler) WithGroup(_ string) slog.Handler {
	return h
}

func (h *testHandler) getLastRecord() map[string]any {
	lines := bytes.Split(h.buf.Bytes(), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		if len(lines[i]) > 0 {
			var m map[string]any
			if err := json.Unmarshal(lines[i], &m); err == nil {
				return m
			}
		}
	}
	return nil
}

func TestEnrichLogger(t *testing.T) {
	t.Run("adds event_type and emission_id", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		enriched := EnrichLogger(logger, "foo", "em-123")
		enriched.Info("test message")

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "foo", record["event_type"])
		assert.Equal(t, "em-123", record["emission_id"])
		assert.Equal(t, "test message", record["msg"])
	})

	t.Run("nil logger stays nil", func(t *testing.T) {
		assert.Nil(t, EnrichLogger(nil, "foo", "em-123"))
	})
}

func TestLogEmitStart(t *testing.T) {
	t.Run("logs listener count at debug", func(t *testing.T) {
		h := newTestHandler()
		LogEmitStart(slog.New(h), 3)

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "DEBUG", record["level"])
		assert.Equal(t, "emission starting", record["msg"])
		assert.Equal(t, float64(3), record["listeners"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() { LogEmitStart(nil, 1) })
	})
}

func TestLogEmitComplete(t *testing.T) {
	t.Run("logs results and duration", func(t *testing.T) {
		h := newTestHandler()
		LogEmitComplete(slog.New(h), 2, 12.5)

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "emission completed", record["msg"])
		assert.Equal(t, float64(2), record["results"])
		assert.Equal(t, 12.5, record["duration_ms"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() { LogEmitComplete(nil, 0, 0) })
	})
}

func TestLogEmitError(t *testing.T) {
	t.Run("logs the error at error level", func(t *testing.T) {
		h := newTestHandler()
		LogEmitError(slog.New(h), errors.New("boom"), 3.0)

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "ERROR", record["level"])
		assert.Equal(t, "emission failed", record["msg"])
		assert.Equal(t, "boom", record["error"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() { LogEmitError(nil, errors.New("boom"), 0) })
	})
}

func TestLogListenerLeak(t *testing.T) {
	t.Run("logs the diagnostic at warn level", func(t *testing.T) {
		h := newTestHandler()
		LogListenerLeak(slog.New(h), "foo", 11, 10)

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "WARN", record["level"])
		assert.Equal(t, "possible listener leak detected", record["msg"])
		assert.Equal(t, "foo", record["event_type"])
		assert.Equal(t, float64(11), record["listeners"])
		assert.Equal(t, float64(10), record["max_listeners"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() { LogListenerLeak(nil, "foo", 1, 1) })
	})
}

func TestLogJournalError(t *testing.T) {
	t.Run("logs at warn level", func(t *testing.T) {
		h := newTestHandler()
		LogJournalError(slog.New(h), errors.New("disk full"))

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "WARN", record["level"])
		assert.Equal(t, "journal record failed", record["msg"])
		assert.Equal(t, "disk full", record["error"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() { LogJournalError(nil, errors.New("boom")) })
	})
}
