package config

import (
	"strings"
	"testing"
	"time"
)

const validSecret = "config-test-secret-0123456789abcdef"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("MEDQUEUE_PG_DSN", "postgres://localhost/medqueue")
	t.Setenv("MEDQUEUE_JWT_SECRET", validSecret)
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("unexpected port: %s", cfg.Port)
	}
	if cfg.JWTIssuer != "medqueue" {
		t.Fatalf("unexpected issuer: %s", cfg.JWTIssuer)
	}
	if cfg.AccessTTL != 15*time.Minute {
		t.Fatalf("unexpected access ttl: %v", cfg.AccessTTL)
	}
	if cfg.RefreshTTL != 30*24*time.Hour {
		t.Fatalf("unexpected refresh ttl: %v", cfg.RefreshTTL)
	}
	if cfg.SessionLimit != 5 {
		t.Fatalf("unexpected session limit: %d", cfg.SessionLimit)
	}
	if cfg.HTTPAddress() != ":8080" {
		t.Fatalf("unexpected address: %s", cfg.HTTPAddress())
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("MEDQUEUE_ACCESS_TTL_MINUTES", "5")
	t.Setenv("MEDQUEUE_REFRESH_TTL_DAYS", "7")
	t.Setenv("MEDQUEUE_SESSION_LIMIT", "2")
	t.Setenv("MEDQUEUE_CORS_ORIGINS", "https://app.medqueue.rw, https://admin.medqueue.rw")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("unexpected port: %s", cfg.Port)
	}
	if cfg.AccessTTL != 5*time.Minute {
		t.Fatalf("unexpected access ttl: %v", cfg.AccessTTL)
	}
	if cfg.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("unexpected refresh ttl: %v", cfg.RefreshTTL)
	}
	if cfg.SessionLimit != 2 {
		t.Fatalf("unexpected session limit: %d", cfg.SessionLimit)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://admin.medqueue.rw" {
		t.Fatalf("unexpected origins: %v", cfg.CORSOrigins)
	}
}

func TestLoadRejectsMissingOrWeakSecrets(t *testing.T) {
	t.Setenv("MEDQUEUE_PG_DSN", "")
	t.Setenv("MEDQUEUE_JWT_SECRET", validSecret)
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "MEDQUEUE_PG_DSN") {
		t.Fatalf("expected DSN error, got %v", err)
	}

	t.Setenv("MEDQUEUE_PG_DSN", "postgres://localhost/medqueue")
	t.Setenv("MEDQUEUE_JWT_SECRET", "")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "MEDQUEUE_JWT_SECRET") {
		t.Fatalf("expected secret error, got %v", err)
	}

	t.Setenv("MEDQUEUE_JWT_SECRET", "short")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "32 bytes") {
		t.Fatalf("expected length error, got %v", err)
	}
}

func TestLoadIgnoresInvalidNumbers(t *testing.T) {
	setRequired(t)
	t.Setenv("MEDQUEUE_SESSION_LIMIT", "-3")
	t.Setenv("MEDQUEUE_ACCESS_TTL_MINUTES", "nope")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SessionLimit != 5 {
		t.Fatalf("expected default session limit, got %d", cfg.SessionLimit)
	}
	if cfg.AccessTTL != 15*time.Minute {
		t.Fatalf("expected default access ttl, got %v", cfg.AccessTTL)
	}
}
