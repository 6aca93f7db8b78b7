package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration for the scraper service.
type Config struct {
	Env             string
	HTTPPort        string
	MaxConcurrency  int
	MaxHistory      int
	QueueLimit      int
	AllowedOrigins  []string
	ExtractCommand  string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables with sane defaults for local development.
func Load() Config {
	cfg := Config{
		Env:             getEnv("APP_ENV", "dev"),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		MaxConcurrency:  getEnvInt("SCRAPER_MAX_CONCURRENCY", 5),
		QueueLimit:      getEnvInt("SCRAPER_QUEUE_LIMIT", 50),
		AllowedOrigins:  getEnvList("SCRAPER_ALLOWED_ORIGINS", []string{"*"}),
		ExtractCommand:  getEnv("SCRAPER_COMMAND", ""),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	cfg.MaxHistory = getEnvInt("SCRAPER_MAX_HISTORY", defaultHistory(cfg.MaxConcurrency))
	if cfg.MaxHistory < 0 {
		cfg.MaxHistory = 0
	}
	if cfg.QueueLimit < 0 {
		cfg.QueueLimit = 0
	}
	return cfg
}

// defaultHistory keeps enough terminal records around for a busy pool
// without letting memory grow unbounded.
func defaultHistory(workers int) int {
	if h := workers * 20; h > 200 {
		return h
	}
	return 200
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}
