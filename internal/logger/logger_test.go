package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/rustyeddy/tradeportal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.LogConfig
		level zapcore.Level
	}{
		{"debug console", config.LogConfig{Level: "DEBUG", Encoding: "console"}, zapcore.DebugLevel},
		{"warn json", config.LogConfig{Level: "warn", Encoding: "json"}, zapcore.WarnLevel},
		{"unknown level", config.LogConfig{Level: "chatty"}, zapcore.InfoLevel},
		{"empty", config.LogConfig{}, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.level))
			if tt.level > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.level-1))
			}
		})
	}
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l, err := New(config.LogConfig{})
	require.NoError(t, err)
	assert.Same(t, l, OrNop(l))
}
