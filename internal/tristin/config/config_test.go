package config

import (
	"strings"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.RateLimit != 30 || cfg.RateWindow != time.Minute {
		t.Errorf("rate limit defaults = %d/%s", cfg.RateLimit, cfg.RateWindow)
	}
	if cfg.ResponseCacheSize != 500 || cfg.ResponseCacheTTL != 5*time.Minute {
		t.Errorf("response cache defaults = %d/%s", cfg.ResponseCacheSize, cfg.ResponseCacheTTL)
	}
	if cfg.DefCacheSize != 200 || cfg.DefCacheTTL != time.Hour {
		t.Errorf("definition cache defaults = %d/%s", cfg.DefCacheSize, cfg.DefCacheTTL)
	}
	if cfg.MemoryCapacity != 5 || cfg.MemoryFieldLen != 500 {
		t.Errorf("memory defaults = %d/%d", cfg.MemoryCapacity, cfg.MemoryFieldLen)
	}
	if cfg.IdentityStrategy != IdentityCookie {
		t.Errorf("IdentityStrategy = %q", cfg.IdentityStrategy)
	}
	if cfg.SweepSchedule != "@every 5m" {
		t.Errorf("SweepSchedule = %q", cfg.SweepSchedule)
	}
}

func TestFromEnv_RequiresAPIKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	if _, err := FromEnv(); err == nil {
		t.Fatal("expected an error without GROQ_API_KEY")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("TRISTIN_LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("TRISTIN_RATE_LIMIT", "5")
	t.Setenv("TRISTIN_RATE_WINDOW", "30s")
	t.Setenv("TRISTIN_RESPONSE_CACHE_TTL", "1m")
	t.Setenv("TRISTIN_IDENTITY_STRATEGY", "addr")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:9000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.RateLimit != 5 || cfg.RateWindow != 30*time.Second {
		t.Errorf("rate limit = %d/%s", cfg.RateLimit, cfg.RateWindow)
	}
	if cfg.ResponseCacheTTL != time.Minute {
		t.Errorf("ResponseCacheTTL = %s", cfg.ResponseCacheTTL)
	}
	if cfg.IdentityStrategy != IdentityAddr {
		t.Errorf("IdentityStrategy = %q", cfg.IdentityStrategy)
	}
}

func TestFromEnv_RejectsUnknownIdentityStrategy(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("TRISTIN_IDENTITY_STRATEGY", "carrier-pigeon")

	_, err := FromEnv()
	if err == nil {
		t.Fatal("expected an error for an unknown identity strategy")
	}
	if !strings.Contains(err.Error(), "identity strategy") {
		t.Errorf("error %q should name the bad knob", err)
	}
}

func TestFromEnv_RejectsNonPositiveRateLimit(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("TRISTIN_RATE_LIMIT", "0")

	if _, err := FromEnv(); err == nil {
		t.Fatal("expected an error for a zero rate limit")
	}
}
