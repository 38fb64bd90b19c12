package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestPairs(t *testing.T) {
	assert.Equal(t, []any{"a", 1, "b", 2}, pairs([]any{"a", 1, "b", 2}))
	assert.Equal(t, []any{"a", 1}, pairs([]any{"a", 1, "dangling"}))
	assert.Equal(t, []any{"b", 2}, pairs([]any{42, 1, "b", 2}))
	assert.Empty(t, pairs(nil))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel(" debug "))
	assert.Equal(t, LevelError, ParseLevel("ERROR"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
}

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel(LevelInfo) })

	SetLevel(LevelError)
	assert.Equal(t, zapcore.ErrorLevel, level.Level())
	SetLevel(LevelDebug)
	assert.True(t, level.Enabled(zapcore.DebugLevel))
}

func TestConfigureDoesNotPanic(t *testing.T) {
	t.Cleanup(func() { Configure(LevelInfo, "console") })

	Configure(LevelDebug, "json")
	assert.NotPanics(t, func() {
		Debug("debug line", "k", "v")
		Info("info line", "odd")
		Error("error line", nil, 1, 2)
		Sync()
	})
}
