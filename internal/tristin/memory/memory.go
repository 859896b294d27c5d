// Package memory implements short-term conversation memory for the chat
// gateway: a bounded per-user ring of recent exchanges. The ring gives the
// completion path conversational continuity and qualifies response-cache
// keys so a cached answer is only reused in the same context.
package memory

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Exchange is one (user message, assistant response) pair stored in a
// user's ring. Text fields are truncated on entry to bound memory and
// prompt size.
type Exchange struct {
	ID                string    // unique exchange ID (UUID)
	UserMessage       string    // truncated user turn
	AssistantResponse string    // truncated assistant turn
	Timestamp         time.Time // when the exchange was recorded
}

// Config holds configuration for the Store.
type Config struct {
	// Capacity is the maximum number of exchanges kept per user. When
	// exceeded, the oldest exchange is dropped. Default: 5.
	Capacity int

	// MaxFieldLen caps the stored length of each text field. Default: 500.
	MaxFieldLen int

	// IdleHorizon is the duration of inactivity after which a user's ring
	// is dropped by SweepIdle. Default: 2 hours.
	IdleHorizon time.Duration
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() Config {
	return Config{
		Capacity:    5,
		MaxFieldLen: 500,
		IdleHorizon: 2 * time.Hour,
	}
}

// ring is the per-user exchange buffer.
type ring struct {
	exchanges []Exchange // oldest first
	touchedAt time.Time  // last append or clear
}

// Store manages the per-user rings. It is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	config Config
	rings  map[string]*ring // key: user key
}

// NewStore creates a Store with the given configuration, filling zero
// fields from DefaultConfig.
func NewStore(cfg Config) *Store {
	def := DefaultConfig()
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.MaxFieldLen <= 0 {
		cfg.MaxFieldLen = def.MaxFieldLen
	}
	if cfg.IdleHorizon <= 0 {
		cfg.IdleHorizon = def.IdleHorizon
	}
	return &Store{
		config: cfg,
		rings:  make(map[string]*ring),
	}
}

// Append records an exchange in the user's ring, evicting the oldest
// exchange when the ring is at capacity. Both text fields are truncated
// to the configured maximum before storage.
func (s *Store) Append(userKey, userMessage, assistantResponse string) {
	s.appendAt(userKey, userMessage, assistantResponse, time.Now())
}

// appendAt is the time-injectable core of Append (for testing).
func (s *Store) appendAt(userKey, userMessage, assistantResponse string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.rings[userKey]
	if r == nil {
		r = &ring{}
		s.rings[userKey] = r
	}

	r.exchanges = append(r.exchanges, Exchange{
		ID:                uuid.New().String(),
		UserMessage:       truncate(userMessage, s.config.MaxFieldLen),
		AssistantResponse: truncate(assistantResponse, s.config.MaxFieldLen),
		Timestamp:         now,
	})
	if len(r.exchanges) > s.config.Capacity {
		excess := len(r.exchanges) - s.config.Capacity
		r.exchanges = r.exchanges[excess:]
	}
	r.touchedAt = now
}

// History returns the user's most recent n exchanges, oldest first. The
// returned slice is a copy, so mutations do not affect the store.
func (s *Store) History(userKey string, n int) []Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.rings[userKey]
	if r == nil || len(r.exchanges) == 0 || n <= 0 {
		return nil
	}
	if n > len(r.exchanges) {
		n = len(r.exchanges)
	}
	out := make([]Exchange, n)
	copy(out, r.exchanges[len(r.exchanges)-n:])
	return out
}

// Transcript renders the user's most recent n exchanges as alternating
// "User:" / "Assistant:" lines, oldest first, for inclusion in an LLM
// system prompt. Returns "" when there is no history.
func (s *Store) Transcript(userKey string, n int) string {
	history := s.History(userKey, n)
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	for _, ex := range history {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", ex.UserMessage, ex.AssistantResponse)
	}
	return b.String()
}

// Latest returns the user's most recent exchange, or nil when the ring is
// empty. The returned Exchange is a copy.
func (s *Store) Latest(userKey string) *Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.rings[userKey]
	if r == nil || len(r.exchanges) == 0 {
		return nil
	}
	ex := r.exchanges[len(r.exchanges)-1]
	return &ex
}

// Clear drops all exchanges for the user. Clearing an unknown user is a
// no-op.
func (s *Store) Clear(userKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rings, userKey)
}

// ActiveUsers returns the number of users currently holding a ring.
func (s *Store) ActiveUsers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rings)
}

// SweepIdle drops rings untouched for longer than the idle horizon,
// bounding total memory across all users. It runs from the background
// cleanup schedule and returns the number of rings dropped.
func (s *Store) SweepIdle(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, r := range s.rings {
		if now.Sub(r.touchedAt) > s.config.IdleHorizon {
			delete(s.rings, key)
			removed++
		}
	}
	return removed
}

// truncate clips s to at most max bytes without splitting a UTF-8 rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
