package goSession

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Revalidation.Interval != time.Hour {
		t.Fatalf("expected hourly revalidation, got %v", cfg.Revalidation.Interval)
	}
	if !cfg.Revalidation.OnFocus || cfg.Revalidation.FocusStaleAfter != 0 {
		t.Fatalf("expected every focus to revalidate, got %+v", cfg.Revalidation)
	}
	if !cfg.Fallback.Enabled || cfg.Fallback.RejectExpiredTokens {
		t.Fatalf("unexpected fallback defaults %+v", cfg.Fallback)
	}
	if cfg.Routes.Login != "/sign-in" || cfg.Routes.AdminLogin != "/admin/login" || cfg.Routes.Home != "/" {
		t.Fatalf("unexpected route defaults %+v", cfg.Routes)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"negative interval", func(c *Config) { c.Revalidation.Interval = -time.Second }, "Revalidation Interval"},
		{"sub-second interval", func(c *Config) { c.Revalidation.Interval = 10 * time.Millisecond }, "Revalidation Interval"},
		{"negative focus", func(c *Config) { c.Revalidation.FocusStaleAfter = -1 }, "FocusStaleAfter"},
		{"negative skew", func(c *Config) { c.Fallback.ClockSkew = -1 }, "ClockSkew"},
		{"strict without fallback", func(c *Config) {
			c.Fallback.Enabled = false
			c.Fallback.RejectExpiredTokens = true
		}, "RejectExpiredTokens"},
		{"relative login", func(c *Config) { c.Routes.Login = "sign-in" }, "Routes Login"},
		{"same login routes", func(c *Config) { c.Routes.AdminLogin = c.Routes.Login }, "must differ"},
		{"async without buffer", func(c *Config) {
			c.Notifications.Async = true
			c.Notifications.BufferSize = 0
		}, "BufferSize"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "etcd" }, "Storage Backend"},
		{"redis without addr", func(c *Config) { c.Storage.Backend = StorageRedis }, "RedisAddr"},
		{"redis without prefix", func(c *Config) {
			c.Storage.Backend = StorageRedis
			c.Storage.RedisAddr = "127.0.0.1:6379"
			c.Storage.RedisPrefix = ""
		}, "RedisPrefix"},
		{"file without path", func(c *Config) {
			c.Storage.Backend = StorageFile
			c.Storage.IdentityFile = "id.txt"
		}, "FilePath"},
		{"file without identity", func(c *Config) {
			c.Storage.Backend = StorageFile
			c.Storage.FilePath = "creds.age"
		}, "IdentityFile"},
		{"relative base url", func(c *Config) { c.API.BaseURL = "/api" }, "BaseURL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestConfigDisabledScheduleIsValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Revalidation.Interval = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero interval should disable the schedule, got %v", err)
	}
}

func TestWithConfigDoesNotAlias(t *testing.T) {
	cfg := DefaultConfig()
	b := New().WithConfig(cfg)
	cfg.Routes.Login = "/changed"
	if b.config.Routes.Login != "/sign-in" {
		t.Fatalf("builder config aliased caller config: %q", b.config.Routes.Login)
	}
}
