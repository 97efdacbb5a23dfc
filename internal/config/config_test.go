package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.MetricsNamespace != "zoey" {
		t.Fatalf("MetricsNamespace = %q, want %q", cfg.MetricsNamespace, "zoey")
	}
	if cfg.SessionInactivityTimeout != 30*time.Minute {
		t.Fatalf("SessionInactivityTimeout = %v, want 30m", cfg.SessionInactivityTimeout)
	}
	if cfg.MaxHistoryTurns != 500 || cfg.MaxInsightsPerMode != 200 {
		t.Fatalf("retention caps = %d/%d, want 500/200", cfg.MaxHistoryTurns, cfg.MaxInsightsPerMode)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("DatabaseURL = %q, want empty default", cfg.DatabaseURL)
	}
	if cfg.ModesConfigPath != "" {
		t.Fatalf("ModesConfigPath = %q, want empty default", cfg.ModesConfigPath)
	}
}

func TestLoadOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9090")
	t.Setenv("APP_SESSION_INACTIVITY_TIMEOUT", "10m")
	t.Setenv("MEMORY_MAX_HISTORY_TURNS", "0")
	t.Setenv("APP_MODES_CONFIG", "modes.yaml")
	t.Setenv("APP_ALLOW_ANY_ORIGIN", "yes")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9090" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":9090")
	}
	if cfg.SessionInactivityTimeout != 10*time.Minute {
		t.Fatalf("SessionInactivityTimeout = %v, want 10m", cfg.SessionInactivityTimeout)
	}
	if cfg.MaxHistoryTurns != 0 {
		t.Fatalf("MaxHistoryTurns = %d, want 0 (retention disabled)", cfg.MaxHistoryTurns)
	}
	if cfg.ModesConfigPath != "modes.yaml" {
		t.Fatalf("ModesConfigPath = %q", cfg.ModesConfigPath)
	}
	if !cfg.AllowAnyOrigin {
		t.Fatalf("AllowAnyOrigin = false, want true")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_SESSION_INACTIVITY_TIMEOUT", "1s")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() accepted sub-minimum inactivity timeout")
	}

	setCoreEnvEmpty(t)
	t.Setenv("MEMORY_PERSIST_RETRIES", "-1")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() accepted negative persist retries")
	}

	setCoreEnvEmpty(t)
	t.Setenv("MEMORY_PERSIST_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() accepted unparseable persist timeout")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_SESSION_INACTIVITY_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"APP_MODES_CONFIG",
		"DATABASE_URL",
		"MEMORY_PERSIST_TIMEOUT",
		"MEMORY_PERSIST_RETRIES",
		"MEMORY_MAX_HISTORY_TURNS",
		"MEMORY_MAX_INSIGHTS_PER_MODE",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
