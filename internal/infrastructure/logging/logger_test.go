package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewBuildsLogger(t *testing.T) {
	logger, err := New(Config{Level: "debug", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	require.NotNil(t, logger.Logger)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestFromLevelFallsBack(t *testing.T) {
	logger := FromLevel("not-a-level", false)
	require.NotNil(t, logger)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestComponentIsNamed(t *testing.T) {
	logger := NewNop()
	child := logger.Component("supervisor")
	assert.NotNil(t, child)
}
