// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything main needs to wire the service.
type Config struct {
	Port        string
	DatabaseURL string
	RedisAddr   string

	WhoisTimeout  time.Duration
	WhoisCacheTTL time.Duration

	LogLevel string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		WhoisTimeout:  getDuration("WHOIS_TIMEOUT", 10*time.Second),
		WhoisCacheTTL: getDuration("WHOIS_CACHE_TTL", 24*time.Hour),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
