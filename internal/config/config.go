package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime settings of the ticker service. Values come
// from the environment with sensible development defaults.
type Config struct {
	// Backend API
	BackendURL     string
	BackendTimeout time.Duration

	// Server
	Port string

	// Redis feed snapshot store; empty disables the store.
	RedisAddr string

	// Polling cadence
	FastPollInterval  time.Duration
	SlowRefreshDelays []time.Duration
	MatchdayRefresh   time.Duration

	// Commentary
	DefaultStyle string

	Environment string
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		BackendURL:     getEnv("BACKEND_URL", "http://localhost:8000/api/v1"),
		BackendTimeout: getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),

		Port: getEnv("PORT", "8090"),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		FastPollInterval: getEnvDuration("FAST_POLL_INTERVAL", 5*time.Second),
		SlowRefreshDelays: []time.Duration{
			getEnvDuration("SLOW_REFRESH_FIRST", 5*time.Second),
			getEnvDuration("SLOW_REFRESH_SECOND", 15*time.Second),
		},
		MatchdayRefresh: getEnvDuration("MATCHDAY_REFRESH", 25*time.Second),

		DefaultStyle: getEnv("DEFAULT_STYLE", "neutral"),

		Environment: getEnv("ENVIRONMENT", "development"),
	}
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
