package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server    ServerConfig
	DB        DatabaseConfig
	Logging   LoggingConfig   `envconfig:"LOG"`
	RateLimit RateLimitConfig `split_words:"true"`
	CORS      CORSConfig
	Import    ImportConfig
	Stats     StatsConfig
	Metrics   MetricsConfig
}

type ServerConfig struct {
	Host            string        `default:"localhost"`
	Port            int           `default:"8080"`
	ReadTimeout     time.Duration `split_words:"true" default:"10s"`
	WriteTimeout    time.Duration `split_words:"true" default:"15s"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
}

type DatabaseConfig struct {
	Path string `default:"./data/disaster-reports.db"`
}

type LoggingConfig struct {
	Level  string `default:"info"`
	Format string `default:"json"`
}

type RateLimitConfig struct {
	Enabled bool    `default:"true"`
	RPS     float64 `envconfig:"RPS" default:"10"`
	Burst   int     `default:"20"`
}

type CORSConfig struct {
	AllowOrigins []string `split_words:"true" default:"*"`
}

type ImportConfig struct {
	MaxUploadBytes int64 `split_words:"true" default:"5242880"`
}

type StatsConfig struct {
	TimelineDays int `split_words:"true" default:"30"`
}

type MetricsConfig struct {
	Enabled bool `default:"true"`
}

// Load reads the configuration from the environment. Keys are the struct path
// joined by underscores, e.g. SERVER_PORT, DB_PATH, LOG_LEVEL,
// IMPORT_MAX_UPLOAD_BYTES.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.DB.Path == "" {
		return fmt.Errorf("database path must be set")
	}

	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1) {
		return fmt.Errorf("rate limit needs positive rps and burst, got %v/%d", c.RateLimit.RPS, c.RateLimit.Burst)
	}

	if c.Import.MaxUploadBytes < 1 {
		return fmt.Errorf("import max upload bytes must be positive")
	}

	if c.Stats.TimelineDays < 1 || c.Stats.TimelineDays > 366 {
		return fmt.Errorf("stats timeline days must be between 1 and 366, got %d", c.Stats.TimelineDays)
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown timeout must be positive")
	}

	return nil
}
