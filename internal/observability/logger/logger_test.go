package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewRespectsLevelAndFormat(t *testing.T) {
	log, err := New(Config{
		ServiceName: "motorlane",
		Environment: "production",
		Level:       "warn",
		Format:      "json",
	})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
}

func TestNewDebugBuildsConsoleLogger(t *testing.T) {
	log, err := New(Config{
		ServiceName: "motorlane",
		Environment: "dev",
		Level:       "not-a-level",
		Format:      "console",
		Debug:       true,
	})
	require.NoError(t, err)
	// An unparseable level falls back to info.
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}
