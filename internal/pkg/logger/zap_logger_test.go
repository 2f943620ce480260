package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromZap(zap.New(core))

	l.Debug("OPTIMIZER", "pass started", nil)
	l.Info("CACHE", "hit", map[string]interface{}{"key": "abc"})
	l.Warn("CORRECTOR", "retrying", map[string]interface{}{"attempt": 2})
	l.Error("CORRECTOR", "gave up", map[string]interface{}{"error": "boom"})

	entries := logs.All()
	require.Len(t, entries, 4)

	tests := []struct {
		level  zapcore.Level
		module string
		msg    string
	}{
		{zapcore.DebugLevel, "OPTIMIZER", "pass started"},
		{zapcore.InfoLevel, "CACHE", "hit"},
		{zapcore.WarnLevel, "CORRECTOR", "retrying"},
		{zapcore.ErrorLevel, "CORRECTOR", "gave up"},
	}
	for i, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			e := entries[i]
			assert.Equal(t, tt.level, e.Level)
			assert.Equal(t, tt.msg, e.Message)
			assert.Equal(t, tt.module, e.ContextMap()["module"])
			assert.NotNil(t, e.ContextMap()["details"], "nil details are replaced by an empty map")
		})
	}

	assert.Equal(t, "boom", entries[3].ContextMap()["error_ref"])
	_, hasRef := entries[2].ContextMap()["error_ref"]
	assert.False(t, hasRef)
}

func TestIsolatedLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.log")
	l := NewIsolatedLogger(path)
	l.Info("OPTIMIZER", "session finished", map[string]interface{}{"session_id": "s-1"})
	l.Debug("OPTIMIZER", "below file level", nil)
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"message":"session finished"`)
	assert.Contains(t, string(raw), `"session_id":"s-1"`)
	assert.NotContains(t, string(raw), "below file level")
}

func TestNop(t *testing.T) {
	l := NewNop()
	assert.NotPanics(t, func() {
		l.Info("X", "ignored", nil)
		_ = l.Sync()
	})
}
