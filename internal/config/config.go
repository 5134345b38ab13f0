package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	SQLitePath  string
	RedisURL    string

	// StoreDriver forces a message store backend ("postgres", "redis",
	// "sqlite", "memory"). Empty picks by what is configured.
	StoreDriver string

	// UsersFile points at the JSON user directory for the static auth
	// provider.
	UsersFile string

	// PersistQueueDepth bounds the fire-and-forget persistence queue.
	PersistQueueDepth int

	// SessionBuffer is the per-session outbound event buffer; a session
	// that falls this far behind starts losing pushes.
	SessionBuffer int

	// Rate limiting
	RateLimitWhitelist []string // IPs or CIDRs exempt from rate limiting
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("ENV", "development"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		SQLitePath:        os.Getenv("SQLITE_PATH"),
		RedisURL:          os.Getenv("REDIS_URL"),
		StoreDriver:       os.Getenv("STORE_DRIVER"),
		UsersFile:         getEnv("USERS_FILE", "./data/users.json"),
		PersistQueueDepth: getEnvInt("PERSIST_QUEUE_DEPTH", 256),
		SessionBuffer:     getEnvInt("SESSION_BUFFER", 64),
	}

	// Parse whitelist (comma-separated IPs or CIDRs)
	if whitelist := os.Getenv("RATE_LIMIT_WHITELIST"); whitelist != "" {
		for _, entry := range strings.Split(whitelist, ",") {
			entry = strings.TrimSpace(entry)
			if entry != "" {
				cfg.RateLimitWhitelist = append(cfg.RateLimitWhitelist, entry)
			}
		}
	}

	// In production, require a durable store and redis
	if cfg.Env == "production" {
		if cfg.DatabaseURL == "" && cfg.StoreDriver != "redis" {
			panic("DATABASE_URL is required in production")
		}
		if cfg.RedisURL == "" {
			panic("REDIS_URL is required in production")
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
