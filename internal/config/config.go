package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the Zoey companion service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	// ModesConfigPath points at an optional YAML file overriding the
	// built-in mode scripts and keyword tables. Empty means defaults.
	ModesConfigPath string

	DatabaseURL        string
	PersistTimeout     time.Duration
	PersistRetries     int
	MaxHistoryTurns    int
	MaxInsightsPerMode int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:                 envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:         envOrDefault("APP_METRICS_NAMESPACE", "zoey"),
		AllowAnyOrigin:           false,
		ModesConfigPath:          stringsTrimSpace("APP_MODES_CONFIG"),
		DatabaseURL:              stringsTrimSpace("DATABASE_URL"),
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 30 * time.Minute,
		PersistTimeout:           5 * time.Second,
		PersistRetries:           3,
		MaxHistoryTurns:          500,
		MaxInsightsPerMode:       200,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.PersistTimeout, err = durationFromEnv("MEMORY_PERSIST_TIMEOUT", cfg.PersistTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.PersistRetries, err = intFromEnv("MEMORY_PERSIST_RETRIES", cfg.PersistRetries)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxHistoryTurns, err = intFromEnv("MEMORY_MAX_HISTORY_TURNS", cfg.MaxHistoryTurns)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxInsightsPerMode, err = intFromEnv("MEMORY_MAX_INSIGHTS_PER_MODE", cfg.MaxInsightsPerMode)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.PersistTimeout <= 0 {
		return Config{}, fmt.Errorf("MEMORY_PERSIST_TIMEOUT must be positive")
	}
	if cfg.PersistRetries < 0 {
		return Config{}, fmt.Errorf("MEMORY_PERSIST_RETRIES must be >= 0")
	}
	if cfg.MaxHistoryTurns < 0 {
		return Config{}, fmt.Errorf("MEMORY_MAX_HISTORY_TURNS must be >= 0")
	}
	if cfg.MaxInsightsPerMode < 0 {
		return Config{}, fmt.Errorf("MEMORY_MAX_INSIGHTS_PER_MODE must be >= 0")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
