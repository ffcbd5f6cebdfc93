package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestParseLogLevel checks the string-to-level mapping and the unknown case.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":  zapcore.DebugLevel,
		"info":   zapcore.InfoLevel,
		"warn":   zapcore.WarnLevel,
		"error":  zapcore.ErrorLevel,
		"panic":  zapcore.PanicLevel,
		"fatal":  zapcore.FatalLevel,
		" INFO ": zapcore.InfoLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestFromContextFallsBackToGlobal asserts a bare context logs through the
// global logger.
func TestFromContextFallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}

// TestContextCarriesScopedLogger verifies names and key-value scope added
// through the context helpers reach the emitted entries.
func TestContextCarriesScopedLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)

	ctx := ToContext(context.Background(), zap.New(core).Sugar())
	ctx = WithName(ctx, "wake")
	ctx = WithKV(ctx, "alarm_id", int64(3))

	InfoKV(ctx, "registered", "at", "07:00")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "wake", entries[0].LoggerName)
	require.Equal(t, "registered", entries[0].Message)
	require.Equal(t, int64(3), entries[0].ContextMap()["alarm_id"])
	require.Equal(t, "07:00", entries[0].ContextMap()["at"])
}

// TestWithLevelTightensGate checks the per-logger level override filters
// entries the underlying core would otherwise accept.
func TestWithLevelTightensGate(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	l := zap.New(core, WithLevel(zapcore.WarnLevel)).Sugar()

	l.Info("quiet")
	l.Warn("loud")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "loud", entries[0].Message)
}
