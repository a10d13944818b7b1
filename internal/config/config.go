// internal/config/config.go
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application. It is loaded once at
// startup and treated as immutable for the process lifetime.
type Config struct {
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	DBURL            string        `mapstructure:"DB_URL"`
	GithubToken      string        `mapstructure:"GITHUB_TOKEN"`
	ReposToSync      []string      `mapstructure:"REPOS_TO_SYNC"`
	SyncInterval     time.Duration `mapstructure:"SYNC_INTERVAL"`
	CommitWindowDays int           `mapstructure:"COMMIT_WINDOW_DAYS"`
	SyncConcurrency  int           `mapstructure:"SYNC_CONCURRENCY"`
	RateLimitMaxWait time.Duration `mapstructure:"RATE_LIMIT_MAX_WAIT"`
	MaxCommitPages   int           `mapstructure:"MAX_COMMIT_PAGES"`
	HTTPAddr         string        `mapstructure:"HTTP_ADDR"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SYNC_INTERVAL", "24h")
	viper.SetDefault("COMMIT_WINDOW_DAYS", 30)
	viper.SetDefault("SYNC_CONCURRENCY", 5)
	viper.SetDefault("RATE_LIMIT_MAX_WAIT", "1m")
	viper.SetDefault("MAX_COMMIT_PAGES", 10)
	viper.SetDefault("HTTP_ADDR", ":8080")

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}
	if cfg.GithubToken == "" {
		return nil, errors.New("GITHUB_TOKEN is a required configuration field")
	}
	if len(cfg.ReposToSync) == 0 {
		return nil, errors.New("REPOS_TO_SYNC must contain at least one repository")
	}
	if cfg.CommitWindowDays <= 0 {
		return nil, errors.New("COMMIT_WINDOW_DAYS must be a positive number of days")
	}
	if cfg.SyncConcurrency <= 0 {
		return nil, errors.New("SYNC_CONCURRENCY must be positive")
	}
	if cfg.MaxCommitPages <= 0 {
		return nil, errors.New("MAX_COMMIT_PAGES must be positive")
	}

	return &cfg, nil
}
