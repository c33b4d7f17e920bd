package config

import (
	"testing"
	"time"
)

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	cfg := LoadRateLimitConfig()
	if !cfg.Enabled {
		t.Fatal("limiter disabled by default")
	}
	if cfg.Capacity != 30 || cfg.RefillTokens != 1 || cfg.RefillInterval != time.Second {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.KeyStrategy != "ip" || cfg.Prefix != "scanrl" {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoadRateLimitConfigClampsNonsense(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "250ms")
	t.Setenv("RATE_LIMIT_TTL", "100ms")

	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 || cfg.RefillTokens != 1 {
		t.Fatalf("clamps = %+v", cfg)
	}
	// TTL is raised so bucket state survives a few refill cycles.
	if cfg.TTL < 5*cfg.RefillInterval {
		t.Fatalf("TTL = %v with interval %v", cfg.TTL, cfg.RefillInterval)
	}
}

func TestEnvIntDefault(t *testing.T) {
	if got := envIntDefault("QR_TEST_UNSET", 45); got != 45 {
		t.Fatalf("unset: %d", got)
	}
	t.Setenv("QR_TEST_SET", "120")
	if got := envIntDefault("QR_TEST_SET", 45); got != 120 {
		t.Fatalf("set: %d", got)
	}
	t.Setenv("QR_TEST_BAD", "soon")
	if got := envIntDefault("QR_TEST_BAD", 45); got != 45 {
		t.Fatalf("bad: %d", got)
	}
}
