package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewSilentByDefault(t *testing.T) {
	t.Setenv(LevelEnvVar, "")
	l, err := New("")
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(zapcore.ErrorLevel))
}

func TestNewLevel(t *testing.T) {
	l, err := New("warn")
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zapcore.WarnLevel))
	require.False(t, l.Core().Enabled(zapcore.InfoLevel))
}

func TestNewLevelFromEnv(t *testing.T) {
	t.Setenv(LevelEnvVar, "debug")
	l, err := New("")
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewBadLevel(t *testing.T) {
	_, err := New("chatty")
	require.Error(t, err)
}
