// Package config provides configuration loading for the tracecheck collector.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Config is the root configuration for the collector binary.
type Config struct {
	Collector CollectorConfig `mapstructure:"collector"`
	Debug     DebugConfig     `mapstructure:"debug"`
	Wait      WaitConfig      `mapstructure:"wait"`
}

// CollectorConfig defines the OTLP/gRPC listener settings.
type CollectorConfig struct {
	ListenAddress string `mapstructure:"listen_address"`
	LogLevel      string `mapstructure:"log_level"`
}

// GetLogLevel parses the configured log level, falling back to info on
// unknown values.
func (c *CollectorConfig) GetLogLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// DebugConfig defines the HTTP endpoint serving captured traces for
// inspection.
type DebugConfig struct {
	ListenAddress string `mapstructure:"listen_address"`
	Enabled       bool   `mapstructure:"enabled"`
}

// WaitConfig defines how callers wait for traces to arrive.
type WaitConfig struct {
	PollInterval string `mapstructure:"poll_interval"`
	Timeout      string `mapstructure:"timeout"`
}

// GetPollInterval parses the configured poll interval into a time.Duration.
func (c *WaitConfig) GetPollInterval() time.Duration {
	d, _ := time.ParseDuration(c.PollInterval)
	if d == 0 {
		return 50 * time.Millisecond
	}
	return d
}

// GetTimeout parses the configured wait timeout into a time.Duration.
func (c *WaitConfig) GetTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	if d == 0 {
		return 10 * time.Second
	}
	return d
}

// Load reads the collector configuration from an optional yaml file, with
// environment variable overrides (TRACECHECK_COLLECTOR_LISTEN_ADDRESS etc.).
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/tracecheck")

	viper.SetEnvPrefix("tracecheck")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("collector.listen_address", ":4317")
	viper.SetDefault("collector.log_level", "info")
	viper.SetDefault("debug.listen_address", ":8126")
	viper.SetDefault("debug.enabled", true)
	viper.SetDefault("wait.poll_interval", "50ms")
	viper.SetDefault("wait.timeout", "10s")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
