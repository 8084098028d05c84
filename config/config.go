// Package config loads connpool's tunables from the environment (and an
// optional .env file), mirroring the twelve-factor style used throughout
// the rest of the stack this module was adapted from.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment-tunable knob connpool's binaries need:
// pool capacity, connect/idle timeouts, the introspection HTTP listener,
// and the optional Redis event bus.
type Config struct {
	Env string

	// Pool capacity
	MaxTotal           int
	DefaultMaxPerRoute int

	// Timeouts
	ConnectTimeout  time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration

	// Introspection HTTP server
	HTTPAddr string

	// Optional Redis event bus
	RedisURL   string
	EventbusOn bool

	LogLevel string
}

// Load reads configuration from environment variables and an optional
// .env file in the working directory. Missing variables fall back to
// sane development defaults.
func Load() *Config {
	_ = godotenv.Load()

	connectSec := getEnvInt("POOL_CONNECT_TIMEOUT_SEC", 10)
	idleSec := getEnvInt("POOL_IDLE_TIMEOUT_SEC", 300)
	gracefulSec := getEnvInt("POOL_GRACEFUL_TIMEOUT_SEC", 15)

	return &Config{
		Env:                getEnv("ENV", "development"),
		MaxTotal:           getEnvInt("POOL_MAX_TOTAL", 200),
		DefaultMaxPerRoute: getEnvInt("POOL_DEFAULT_MAX_PER_ROUTE", 20),
		ConnectTimeout:     time.Duration(connectSec) * time.Second,
		IdleTimeout:        time.Duration(idleSec) * time.Second,
		GracefulTimeout:    time.Duration(gracefulSec) * time.Second,
		HTTPAddr:           getEnv("POOL_HTTP_ADDR", ":8090"),
		RedisURL:           getEnv("POOL_REDIS_URL", "redis://redis:6379"),
		EventbusOn:         getEnvBool("POOL_EVENTBUS_ENABLED", false),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
}

// IsDevelopment reports whether Env is "development" (the default).
func (c *Config) IsDevelopment() bool { return c.Env == "development" }

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
