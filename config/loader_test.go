package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(Options{Paths: []string{t.TempDir()}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != goSession.DefaultConfig() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gosession.yaml")
	body := `
revalidation:
  interval: 5m
  on_focus: false
fallback:
  reject_expired_tokens: true
api:
  base_url: https://booking.example.com
storage:
  backend: redis
  redis_addr: 127.0.0.1:6379
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(Options{File: path})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Revalidation.Interval != 5*time.Minute || cfg.Revalidation.OnFocus {
		t.Fatalf("unexpected revalidation %+v", cfg.Revalidation)
	}
	if !cfg.Fallback.RejectExpiredTokens || !cfg.Fallback.Enabled {
		t.Fatalf("unexpected fallback %+v", cfg.Fallback)
	}
	if cfg.API.BaseURL != "https://booking.example.com" {
		t.Fatalf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.API.ValidatePath != "/api/auth/validate-token" {
		t.Fatalf("expected default validate path, got %q", cfg.API.ValidatePath)
	}
	if cfg.Storage.Backend != goSession.StorageRedis || cfg.Storage.RedisPrefix != "gs" {
		t.Fatalf("unexpected storage %+v", cfg.Storage)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GOSESSION_REVALIDATION_INTERVAL", "90s")
	t.Setenv("GOSESSION_ROUTES_LOGIN", "/login")
	t.Setenv("GOSESSION_NOTIFICATIONS_ENABLED", "false")

	cfg, err := Load(Options{Paths: []string{t.TempDir()}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Revalidation.Interval != 90*time.Second {
		t.Fatalf("expected 90s interval, got %v", cfg.Revalidation.Interval)
	}
	if cfg.Routes.Login != "/login" {
		t.Fatalf("expected /login, got %q", cfg.Routes.Login)
	}
	if cfg.Notifications.Enabled {
		t.Fatal("expected notifications disabled")
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("GOSESSION_STORAGE_BACKEND", "etcd")

	_, err := Load(Options{Paths: []string{t.TempDir()}})
	if err == nil || !strings.Contains(err.Error(), "Storage Backend") {
		t.Fatalf("expected storage backend error, got %v", err)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(Options{File: filepath.Join(t.TempDir(), "nope.yaml")}); err == nil {
		t.Fatal("expected error for missing explicit file")
	}
}
