package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BABEL_HOST", "babel")
	t.Setenv("BABEL_PORT", "3001")
	t.Setenv("PERSONA_TOKEN", "secret")
	t.Setenv("POLL_INTERVAL", "15")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BabelHost != "babel" || cfg.BabelPort != "3001" || cfg.PersonaToken != "secret" {
		t.Fatalf("unexpected babel settings %#v", cfg)
	}
	if cfg.PollInterval != 15*time.Second {
		t.Fatalf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Fatalf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.StorageType != StorageBBolt || cfg.StorageTTL != 7*24*time.Hour {
		t.Fatalf("unexpected storage settings %#v", cfg)
	}
}

func TestLoadRejectsZeroIntervals(t *testing.T) {
	t.Setenv("BABEL_HOST", "babel")
	t.Setenv("BABEL_PORT", "3001")
	t.Setenv("POLL_INTERVAL", "0")
	t.Setenv("STORAGE_TTL_SECONDS", "0")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "PollIntervalSeconds") || !strings.Contains(err.Error(), "StorageTTLSeconds") {
		t.Fatalf("expected zero interval errors, got %v", err)
	}
}

func TestLoadRequiresHostAndPortWithoutBaseURL(t *testing.T) {
	t.Setenv("BABEL_HOST", "")
	t.Setenv("BABEL_PORT", "")
	t.Setenv("BABEL_BASE_URL", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "BabelHost") {
		t.Fatalf("expected BabelHost error, got %v", err)
	}
}

func TestLoadAcceptsBaseURLAlone(t *testing.T) {
	t.Setenv("BABEL_HOST", "")
	t.Setenv("BABEL_PORT", "")
	t.Setenv("BABEL_BASE_URL", "https://babel.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BabelBaseURL != "https://babel.example.com" {
		t.Fatalf("BabelBaseURL = %q", cfg.BabelBaseURL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := Config{
		BabelHost:             "babel",
		BabelPort:             "3001",
		HTTPTimeoutSeconds:    1,
		PollIntervalSeconds:   1,
		StorageType:           StorageNone,
		StorageTTLSeconds:     1,
		StorageCleanupSeconds: 1,
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config should be valid: %v", err)
	}

	bad := base
	bad.PollIntervalSeconds = 0
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected poll_interval error")
	}

	for name, zero := range map[string]func(*Config){
		"http_timeout_seconds":             func(c *Config) { c.HTTPTimeoutSeconds = 0 },
		"storage_ttl_seconds":              func(c *Config) { c.StorageTTLSeconds = 0 },
		"storage_cleanup_interval_seconds": func(c *Config) { c.StorageCleanupSeconds = 0 },
	} {
		bad = base
		zero(&bad)
		if err := bad.Validate(); err == nil {
			t.Fatalf("expected %s error for zero value", name)
		}
	}

	bad = base
	bad.BabelBaseURL = "babel:3001"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected babel_base_url error")
	}

	bad = base
	bad.StorageType = "redis"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected storage_type error")
	}

	bad = base
	bad.StorageType = StorageBBolt
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected bbolt_path error")
	}
}
