package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestCollectorConfig_GetLogLevel(t *testing.T) {
	t.Run("Parses the configured level", func(t *testing.T) {
		cfg := CollectorConfig{LogLevel: "debug"}
		assert.Equal(t, zapcore.DebugLevel, cfg.GetLogLevel())

		cfg.LogLevel = "error"
		assert.Equal(t, zapcore.ErrorLevel, cfg.GetLogLevel())
	})

	t.Run("Falls back to info on unknown or empty values", func(t *testing.T) {
		cfg := CollectorConfig{LogLevel: "loud"}
		assert.Equal(t, zapcore.InfoLevel, cfg.GetLogLevel())

		cfg.LogLevel = ""
		assert.Equal(t, zapcore.InfoLevel, cfg.GetLogLevel())
	})
}

func TestWaitConfig_Durations(t *testing.T) {
	t.Run("Parses configured durations", func(t *testing.T) {
		cfg := WaitConfig{PollInterval: "25ms", Timeout: "3s"}
		assert.Equal(t, 25*time.Millisecond, cfg.GetPollInterval())
		assert.Equal(t, 3*time.Second, cfg.GetTimeout())
	})

	t.Run("Falls back to defaults on unparseable values", func(t *testing.T) {
		cfg := WaitConfig{PollInterval: "soon", Timeout: ""}
		assert.Equal(t, 50*time.Millisecond, cfg.GetPollInterval())
		assert.Equal(t, 10*time.Second, cfg.GetTimeout())
	})
}
