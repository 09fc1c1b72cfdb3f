package config

import (
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv   string
	DBPath   string
	DBDriver string
	// RedisAddr enables the row-level read-through cache when set. An empty
	// value runs the server without Redis.
	RedisAddr string
	HTTPPort  int
	CacheTTL  time.Duration
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *Config {
	port, err := strconv.Atoi(getEnv("HTTP_PORT", "8080"))
	if err != nil {
		port = 8080
	}

	ttl, err := time.ParseDuration(getEnv("CACHE_TTL", "5m"))
	if err != nil {
		ttl = 5 * time.Minute
	}

	return &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		DBPath:    getEnv("DB_PATH", "./data/feedback.db"),
		DBDriver:  getEnv("DB_DRIVER", "sqlite3"),
		RedisAddr: os.Getenv("REDIS_ADDR"),
		HTTPPort:  port,
		CacheTTL:  ttl,
	}
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
