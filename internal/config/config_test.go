package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DraftTTL != 24*time.Hour {
		t.Errorf("DraftTTL = %v, want 24h", cfg.DraftTTL)
	}
	if cfg.CalendarFetchLimit != 100 {
		t.Errorf("CalendarFetchLimit = %d, want 100", cfg.CalendarFetchLimit)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DRAFT_TTL", "12h")
	t.Setenv("CALENDAR_FETCH_LIMIT", "50")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")
	t.Setenv("REDIS_TLS", "true")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.DraftTTL != 12*time.Hour {
		t.Errorf("DraftTTL = %v, want 12h", cfg.DraftTTL)
	}
	if cfg.CalendarFetchLimit != 50 {
		t.Errorf("CalendarFetchLimit = %d, want 50", cfg.CalendarFetchLimit)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("CORSAllowedOrigins = %v, want 2 entries", cfg.CORSAllowedOrigins)
	}
	if cfg.CORSAllowedOrigins[1] != "https://staging.example.com" {
		t.Errorf("CORSAllowedOrigins[1] = %q", cfg.CORSAllowedOrigins[1])
	}
	if !cfg.RedisTLS {
		t.Error("RedisTLS = false, want true")
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("CALENDAR_FETCH_LIMIT", "lots")
	t.Setenv("DRAFT_TTL", "soon")

	cfg := Load()

	if cfg.CalendarFetchLimit != 100 {
		t.Errorf("CalendarFetchLimit = %d, want default 100", cfg.CalendarFetchLimit)
	}
	if cfg.DraftTTL != 24*time.Hour {
		t.Errorf("DraftTTL = %v, want default 24h", cfg.DraftTTL)
	}
}
