// Package llm provides the completion-call layer for the chat gateway.
//
// The gateway makes exactly one completion attempt per user request,
// bounded by the client timeout; every failure mode is mapped to a
// sentinel error so the orchestrator can degrade to an in-character
// fallback line instead of surfacing a raw upstream error.
package llm

import (
	"context"
	"errors"
)

// ErrRateLimit is returned when the upstream API reports a rate-limiting
// condition (HTTP 429).
var ErrRateLimit = errors.New("llm: upstream rate limit exceeded")

// ErrTimeout is returned when the completion call exceeds its deadline.
var ErrTimeout = errors.New("llm: completion timed out")

// ErrService is returned for any other upstream failure: transport
// errors, 5xx responses, or malformed response bodies.
var ErrService = errors.New("llm: upstream service error")

// Role is the role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a completion request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to a single completion call.
type CompletionRequest struct {
	// SystemPrompt is the persona instruction.
	SystemPrompt string

	// UserMessage is the current user turn, with any conversation
	// history already embedded by the caller.
	UserMessage string

	// MaxTokens caps the generated reply. The orchestrator sets this from
	// the classification (long-form requests get the larger budget).
	MaxTokens int

	// Temperature controls sampling randomness.
	Temperature float64
}

// Provider is implemented by completion backends. Implementations must be
// safe for concurrent use.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
