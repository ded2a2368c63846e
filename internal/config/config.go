// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Source modes for the expense record store.
const (
	SourceSample = "sample"
	SourceSQLite = "sqlite"
)

// Config holds all runtime settings for the ledger server.
type Config struct {
	Port         int    `mapstructure:"PORT"`
	DBPath       string `mapstructure:"DB_PATH"`
	SourceMode   string `mapstructure:"SOURCE_MODE"`
	BaseCurrency string `mapstructure:"BASE_CURRENCY"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	JWTSecret    string `mapstructure:"JWT_SECRET"`
}

// Load reads configuration from environment variables with sane defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("PORT", 8080)
	v.SetDefault("DB_PATH", "./data/ledger.db")
	v.SetDefault("SOURCE_MODE", SourceSQLite)
	v.SetDefault("BASE_CURRENCY", "EUR")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.SourceMode != SourceSample && cfg.SourceMode != SourceSQLite {
		return nil, fmt.Errorf("unknown SOURCE_MODE %q (want %q or %q)",
			cfg.SourceMode, SourceSample, SourceSQLite)
	}

	return &cfg, nil
}
