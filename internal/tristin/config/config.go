// Package config assembles the gateway's runtime configuration from
// environment variables. Every knob has a default; only the model API
// key is mandatory.
package config

import (
	"fmt"
	"time"

	"github.com/justcollins/tristin/common/environment"
)

// Identity strategy names accepted by TRISTIN_IDENTITY_STRATEGY.
const (
	IdentityCookie = "cookie"
	IdentityAddr   = "addr"
)

// Config is the full gateway configuration.
type Config struct {
	// ListenAddr is the HTTP bind address.
	ListenAddr string

	// GroqAPIKey authenticates against the completion API. Required.
	GroqAPIKey string
	// GroqBaseURL overrides the completion endpoint.
	GroqBaseURL string
	// GroqModel selects the chat model.
	GroqModel string
	// GroqTimeout bounds a single completion call.
	GroqTimeout time.Duration

	// RateLimit allows this many requests per sender per RateWindow.
	RateLimit  int
	RateWindow time.Duration

	// ResponseCacheSize and ResponseCacheTTL shape the completion cache.
	ResponseCacheSize int
	ResponseCacheTTL  time.Duration

	// DefCacheSize and DefCacheTTL shape the definition cache.
	DefCacheSize int
	DefCacheTTL  time.Duration

	// MemoryCapacity is the number of exchanges kept per sender.
	MemoryCapacity int
	// MemoryFieldLen clips each stored message and reply.
	MemoryFieldLen int
	// MemoryIdleHorizon ages out conversations with no recent activity.
	MemoryIdleHorizon time.Duration

	// DictTimeout bounds a single dictionary lookup.
	DictTimeout time.Duration

	// PersonaPath points at an operator persona pack. Empty means the
	// embedded default.
	PersonaPath string

	// IdentityStrategy is "cookie" or "addr".
	IdentityStrategy string
	// SessionSecret signs session cookies. Empty means a random secret
	// is generated at startup, which invalidates sessions on restart.
	SessionSecret string

	// SweepSchedule is the cron spec for background cleanup.
	SweepSchedule string
}

// FromEnv reads the configuration from TRISTIN_* environment variables.
func FromEnv() (Config, error) {
	apiKey, err := environment.RequiredString("GROQ_API_KEY")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr: environment.StringOr("TRISTIN_LISTEN_ADDR", ":8080"),

		GroqAPIKey:  apiKey,
		GroqBaseURL: environment.StringOr("GROQ_BASE_URL", ""),
		GroqModel:   environment.StringOr("GROQ_MODEL", ""),
		GroqTimeout: environment.DurationOr("GROQ_TIMEOUT", 15*time.Second),

		RateLimit:  environment.IntOr("TRISTIN_RATE_LIMIT", 30),
		RateWindow: environment.DurationOr("TRISTIN_RATE_WINDOW", time.Minute),

		ResponseCacheSize: environment.IntOr("TRISTIN_RESPONSE_CACHE_SIZE", 500),
		ResponseCacheTTL:  environment.DurationOr("TRISTIN_RESPONSE_CACHE_TTL", 5*time.Minute),

		DefCacheSize: environment.IntOr("TRISTIN_DEF_CACHE_SIZE", 200),
		DefCacheTTL:  environment.DurationOr("TRISTIN_DEF_CACHE_TTL", time.Hour),

		MemoryCapacity:    environment.IntOr("TRISTIN_MEMORY_CAPACITY", 5),
		MemoryFieldLen:    environment.IntOr("TRISTIN_MEMORY_FIELD_LEN", 500),
		MemoryIdleHorizon: environment.DurationOr("TRISTIN_MEMORY_IDLE_HORIZON", 2*time.Hour),

		DictTimeout: environment.DurationOr("TRISTIN_DICT_TIMEOUT", 4*time.Second),

		PersonaPath: environment.StringOr("TRISTIN_PERSONA_PATH", ""),

		IdentityStrategy: environment.StringOr("TRISTIN_IDENTITY_STRATEGY", IdentityCookie),
		SessionSecret:    environment.StringOr("TRISTIN_SESSION_SECRET", ""),

		SweepSchedule: environment.StringOr("TRISTIN_SWEEP_SCHEDULE", "@every 5m"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.RateLimit <= 0 {
		return fmt.Errorf("config: rate limit must be positive, got %d", c.RateLimit)
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("config: rate window must be positive, got %s", c.RateWindow)
	}
	if c.ResponseCacheSize <= 0 || c.DefCacheSize <= 0 {
		return fmt.Errorf("config: cache sizes must be positive")
	}
	if c.ResponseCacheTTL <= 0 || c.DefCacheTTL <= 0 {
		return fmt.Errorf("config: cache TTLs must be positive")
	}
	if c.MemoryCapacity <= 0 || c.MemoryFieldLen <= 0 {
		return fmt.Errorf("config: memory capacity and field length must be positive")
	}
	switch c.IdentityStrategy {
	case IdentityCookie, IdentityAddr:
	default:
		return fmt.Errorf("config: unknown identity strategy %q", c.IdentityStrategy)
	}
	return nil
}
