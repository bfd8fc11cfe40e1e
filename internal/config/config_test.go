package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9090"
postgres:
  url: postgres://localhost/trivia
cache:
  ttl: 2m
builder:
  sessionTTL: 1h
auth:
  jwtSecret: s3cret
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Auth.JWTSecret != "s3cret" || cfg.Postgres.URL == "" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if got := TTLDuration(cfg.Cache.TTL, time.Minute); got != 2*time.Minute {
		t.Fatalf("expected 2m cache ttl, got %v", got)
	}
	if got := TTLDuration(cfg.Builder.SessionTTL, time.Minute); got != time.Hour {
		t.Fatalf("expected 1h session ttl, got %v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected zero config, got %v", err)
	}
	if cfg.Postgres.URL != "" {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("bogus", time.Second); got != time.Second {
		t.Fatalf("expected fallback, got %v", got)
	}
}
