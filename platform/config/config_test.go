package config

import (
	"testing"
	"time"
)

func TestLoad_SchedulerAndRateLimitDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/engagement_test")
	t.Setenv("SWEEP_INTERVAL", "")
	t.Setenv("RATE_LIMIT_RPS", "")
	t.Setenv("RATE_LIMIT_BURST", "")

	// Empty values fall through the parse helpers; the consumers treat zero
	// as "use the built-in default" for the interval and "disabled" for the
	// limiter, so Load must not fail on them.
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GetSweepInterval() != 0 {
		t.Fatalf("expected zero sweep interval for empty value, got %v", cfg.GetSweepInterval())
	}

	t.Setenv("SWEEP_INTERVAL", "5m")
	t.Setenv("RATE_LIMIT_RPS", "10")
	t.Setenv("RATE_LIMIT_BURST", "20")

	cfg, err = Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GetSweepInterval() != 5*time.Minute {
		t.Fatalf("expected 5m sweep interval, got %v", cfg.GetSweepInterval())
	}
	if cfg.GetRateLimitRPS() != 10 || cfg.GetRateLimitBurst() != 20 {
		t.Fatalf("unexpected rate limit settings: rps=%v burst=%d", cfg.GetRateLimitRPS(), cfg.GetRateLimitBurst())
	}
}

func TestLoad_SchedulerOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/engagement_test")
	t.Setenv("SWEEP_INTERVAL", "90s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GetSweepInterval() != 90*time.Second {
		t.Fatalf("expected 90s sweep interval, got %v", cfg.GetSweepInterval())
	}
	if cfg.GetRateLimitRPS() != 2.5 {
		t.Fatalf("expected 2.5 rps, got %v", cfg.GetRateLimitRPS())
	}
	if cfg.GetRateLimitBurst() != 5 {
		t.Fatalf("expected burst 5, got %d", cfg.GetRateLimitBurst())
	}
}
