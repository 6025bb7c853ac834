package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestUse(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	Use(zap.New(core))
	t.Cleanup(func() { log = zap.NewNop().Sugar() })

	Debugw("threshold", "name", "water_temperature", "value", 12.5)
	Warnw("empty population", "name", "land_temperature")

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "threshold", entries[0].Message)
	assert.Equal(t, 12.5, entries[0].ContextMap()["value"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
}

func TestBuild_WrapsCause(t *testing.T) {
	cfg := config(false)
	cfg.Encoding = "xml"

	_, err := build(cfg)
	require.Error(t, err)
	cause := errors.Unwrap(err)
	require.Error(t, cause)
	assert.Contains(t, cause.Error(), "xml")
	assert.Contains(t, err.Error(), "can't initialize zap logger")
}

func TestConfig(t *testing.T) {
	assert.True(t, config(true).Development)
	assert.Equal(t, "console", config(false).Encoding)
}
