// Package config loads the reconciliation engine's runtime configuration
// from YAML plus environment overrides, and initializes the global
// structured logger from it.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full engine configuration.
type Config struct {
	Scratch ScratchConfig `yaml:"scratch" mapstructure:"scratch"`
	Limits  LimitsConfig  `yaml:"limits" mapstructure:"limits"`
	Matcher MatcherConfig `yaml:"matcher" mapstructure:"matcher"`
	Stage   StageConfig   `yaml:"stage" mapstructure:"stage"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// ScratchConfig controls where job-scoped scratch resources (the two
// input copies and the scratch database) are created.
type ScratchConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// LimitsConfig mirrors the caller-enforced contract of spec.md §6.2,
// re-checked defensively inside the engine per spec.md §7.
type LimitsConfig struct {
	MaxFileBytes int64 `yaml:"max_file_bytes" mapstructure:"max_file_bytes"`
	MaxRows      int64 `yaml:"max_rows" mapstructure:"max_rows"`
}

// MatcherConfig configures the matcher's time-tolerance window.
type MatcherConfig struct {
	ToleranceSeconds int64 `yaml:"tolerance_seconds" mapstructure:"tolerance_seconds"`
}

// StageConfig configures the bulk-insert batch size and the bounded
// collector's per-type retention.
type StageConfig struct {
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
	TopK      int `yaml:"top_k" mapstructure:"top_k"`
}

// LogConfig configures the global zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment, falling back to
// defaults matching spec.md's documented constants (60s tolerance, K=1000,
// 10 000-row batches, 500 MB / 2M-row limits).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("RECONCILE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("scratch.dir", "/tmp/reconcile")
	v.SetDefault("limits.max_file_bytes", 500*1024*1024)
	v.SetDefault("limits.max_rows", 2_000_000)
	v.SetDefault("matcher.tolerance_seconds", 60)
	v.SetDefault("stage.batch_size", 10_000)
	v.SetDefault("stage.top_k", 1000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger per cfg.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
