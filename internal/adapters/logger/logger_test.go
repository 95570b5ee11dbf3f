package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"Error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseLevel(tt.in), tt.in)
	}
}

func TestStdLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLoggerTo(&buf, LevelInfo)
	ctx := context.Background()

	l.Debug(ctx, "hidden")
	l.Info(ctx, "Trade created", map[string]interface{}{"tradeID": "AAPL-001", "symbol": "AAPL"})
	l.Error(ctx, errors.New("disk full"), "Save failed")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO] Trade created | symbol=AAPL tradeID=AAPL-001")
	assert.Contains(t, out, "[ERROR] Save failed | error: disk full")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestStdLogger_MergesFieldMaps(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLoggerTo(&buf, LevelDebug)

	l.Warn(context.Background(), "Issue", map[string]interface{}{"a": 1}, map[string]interface{}{"b": 2, "a": 3})
	assert.Contains(t, buf.String(), "[WARN] Issue | a=3 b=2")
}

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewZapLoggerFrom(zap.New(core))
	ctx := context.Background()

	l.Debug(ctx, "hidden")
	l.Warn(ctx, "Calculation issue", map[string]interface{}{"tradeID": "AAPL-001", "code": "missing_floor"})
	l.Error(ctx, errors.New("boom"), "Refresh failed")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "Calculation issue", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "AAPL-001", entries[0].ContextMap()["tradeID"])
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestNewZapLogger(t *testing.T) {
	l, err := NewZapLogger(LevelWarn)
	require.NoError(t, err)
	assert.True(t, l.logger.Core().Enabled(zapcore.WarnLevel))
	assert.False(t, l.logger.Core().Enabled(zapcore.InfoLevel))
}

func TestNew(t *testing.T) {
	l, err := New("", LevelInfo)
	require.NoError(t, err)
	assert.IsType(t, &StdLogger{}, l)

	l, err = New("JSON", LevelDebug)
	require.NoError(t, err)
	assert.IsType(t, &ZapLogger{}, l)

	_, err = New("xml", LevelInfo)
	assert.Error(t, err)
}
