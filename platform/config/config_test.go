package config

import (
	"testing"
	"time"
)

func TestLoadAppliesPipelineDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://claims@localhost/claims")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.GetMaxAttempts() != 5 {
		t.Fatalf("expected 5 max attempts, got %d", cfg.GetMaxAttempts())
	}
	if cfg.GetSnapshotTTL() != 72*time.Hour {
		t.Fatalf("expected 72h snapshot ttl, got %s", cfg.GetSnapshotTTL())
	}
	if cfg.GetNotFoundPolicy() != "retry" {
		t.Fatalf("expected retry not-found policy, got %q", cfg.GetNotFoundPolicy())
	}
	if !cfg.GetCORSAllowAll() {
		t.Fatalf("expected wildcard CORS origin to enable allow-all")
	}
	if cfg.GetRankingRateLimitPerMinute() != 10 {
		t.Fatalf("expected 10 ranking requests per minute, got %d", cfg.GetRankingRateLimitPerMinute())
	}
}

func TestLoadRequiresRedis(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://claims@localhost/claims")
	t.Setenv("REDIS_URL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when REDIS_URL is empty")
	}
}

func TestLoadRejectsUnknownNotFoundPolicy(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://claims@localhost/claims")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("PIPELINE_NOT_FOUND_POLICY", "ignore")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown not-found policy")
	}
}
