package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		want   slog.Level
		wantOK bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"Warn", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.name)
		assert.Equal(t, tt.want, got, tt.name)
		assert.Equal(t, tt.wantOK, ok, tt.name)
	}
}

// Setup replaces the process-wide default logger, so these tests are serial.
func TestSetup(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	t.Run("respects level", func(t *testing.T) {
		buf := &TestLogBuffer{}
		l := Setup(Config{Level: "warn", Output: buf})

		l.Info("hidden")
		l.Warn("shown", slog.String("component", "test"))

		entries, err := buf.GetLogEntries()
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "shown", entries[0]["msg"])
		assert.Equal(t, "test", entries[0]["component"])
		assert.Same(t, l, slog.Default())
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		buf := &TestLogBuffer{}
		l := Setup(Config{Level: "chatty", Output: buf})
		l.Debug("hidden")

		AssertLogContains(t, buf, "invalid log level configured")
		AssertLogField(t, buf, "configured_level", "chatty")
		assert.NotContains(t, buf.String(), "hidden")
	})
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	l, buf := GetTestLogger(t)
	fallback, fallbackBuf := GetTestLogger(t)

	ctx := WithRequestID(WithLogger(context.Background(), l), "req-42")
	FromContextOrDefault(ctx, fallback).Info("scoped")

	AssertLogField(t, buf, "request_id", "req-42")
	assert.Empty(t, fallbackBuf.String())

	FromContextOrDefault(context.Background(), fallback).Info("fallback")
	AssertLogContains(t, fallbackBuf, "fallback")

	id, ok := RequestIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req-42", id)

	_, ok = RequestIDFromContext(context.Background())
	assert.False(t, ok)
}

func TestNewLogCaptureContext(t *testing.T) {
	t.Parallel()

	ctx, buf := NewLogCaptureContext(t)
	FromContext(ctx).Debug("captured", slog.Int("n", 3))

	AssertLogField(t, buf, "n", float64(3))
}
