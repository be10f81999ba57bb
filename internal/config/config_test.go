package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PROMO_API_TIMEOUT_SECONDS", "not-a-number")
	t.Setenv("VERBOSE_ERRORS", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, ,https://b.example.com ")

	cfg := Load()
	if cfg.PromoAPITimeout != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %v", cfg.PromoAPITimeout)
	}
	if cfg.VerboseErrors {
		t.Fatalf("expected verbose errors off")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PROMO_API_BASE_URL", "https://api.example.com/promo_api/v1")
	t.Setenv("PROMO_API_TIMEOUT_SECONDS", "5")
	t.Setenv("VERBOSE_ERRORS", "true")

	cfg := Load()
	if cfg.Port != "9090" || cfg.PromoAPIBaseURL != "https://api.example.com/promo_api/v1" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.PromoAPITimeout != 5*time.Second || !cfg.VerboseErrors {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
