package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ppiankov/newsguard/internal/model"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		name    string
		cfg     model.LogConfig
		verbose bool
		want    zapcore.Level
	}{
		{"json warn", model.LogConfig{Level: "warn", Format: "json"}, false, zapcore.WarnLevel},
		{"console info", model.LogConfig{Level: "info", Format: "console"}, false, zapcore.InfoLevel},
		{"verbose overrides", model.LogConfig{Level: "error", Format: "json"}, true, zapcore.DebugLevel},
		{"empty level", model.LogConfig{Format: "json"}, false, zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg, tt.verbose)
			require.NoError(t, err)
			assert.Equal(t, tt.want, logger.Level())
		})
	}
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(model.LogConfig{Level: "loud", Format: "json"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse level")
}

func TestInit_ReplacesGlobal(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	require.NoError(t, Init(model.LogConfig{Level: "debug", Format: "json"}, false))
	assert.True(t, zap.L().Core().Enabled(zapcore.DebugLevel))
}
