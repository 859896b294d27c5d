// Package chat ties the pipeline together: validation, rate limiting,
// classification, the two caches, conversation memory, and the three
// reply paths (definition lookup, canned table, model completion).
package chat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/justcollins/tristin/internal/tristin/cache"
	"github.com/justcollins/tristin/internal/tristin/classify"
	"github.com/justcollins/tristin/internal/tristin/dictionary"
	"github.com/justcollins/tristin/internal/tristin/llm"
	"github.com/justcollins/tristin/internal/tristin/memory"
	"github.com/justcollins/tristin/internal/tristin/persona"
	"github.com/justcollins/tristin/internal/tristin/ratelimit"
)

// maxMessageRunes is the hard ceiling on inbound message length, counted
// in runes so multi-byte text is not penalized.
const maxMessageRunes = 5000

// Token budgets and sampling temperature for the two completion shapes.
const (
	shortMaxTokens = 150
	longMaxTokens  = 800
	temperature    = 0.7
)

// historyTurns is how many past exchanges are woven into the prompt.
const historyTurns = 3

var (
	// ErrEmptyMessage means the message was empty after trimming.
	ErrEmptyMessage = errors.New("chat: empty message")
	// ErrMessageTooLong means the message exceeded the length ceiling.
	ErrMessageTooLong = errors.New("chat: message too long")
	// ErrRateLimited means the sender exhausted their request window.
	ErrRateLimited = errors.New("chat: rate limited")
)

// Definitions is the dictionary lookup surface the orchestrator needs.
type Definitions interface {
	Lookup(ctx context.Context, word string) (*dictionary.Definition, error)
}

// Orchestrator runs a message through the full reply pipeline. All of its
// collaborators are safe for concurrent use, so a single Orchestrator
// serves every request.
type Orchestrator struct {
	limiter    *ratelimit.Limiter
	respCache  *cache.Cache
	defCache   *cache.Cache
	memory     *memory.Store
	classifier *classify.Classifier
	pack       *persona.Pack
	dict       Definitions
	provider   llm.Provider
	log        *slog.Logger
}

// Deps collects the orchestrator's collaborators. Every field is required
// except Logger, which defaults to slog.Default().
type Deps struct {
	Limiter       *ratelimit.Limiter
	ResponseCache *cache.Cache
	DefCache      *cache.Cache
	Memory        *memory.Store
	Pack          *persona.Pack
	Dictionary    Definitions
	Provider      llm.Provider
	Logger        *slog.Logger
}

// New builds an Orchestrator. The classifier's canned table is derived
// from the persona pack's keys.
func New(deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Orchestrator{
		limiter:    deps.Limiter,
		respCache:  deps.ResponseCache,
		defCache:   deps.DefCache,
		memory:     deps.Memory,
		classifier: classify.New(deps.Pack.Keys()),
		pack:       deps.Pack,
		dict:       deps.Dictionary,
		provider:   deps.Provider,
		log:        deps.Logger,
	}
}

// Handle runs one message through the pipeline and returns the reply.
// On a sentinel error the returned string is still the user-facing reply
// for that outcome, so callers only need to map the error to a status.
//
// The order is fixed: validate, rate-check, classify, then route. A
// rejected request never consumes cache or memory state.
func (o *Orchestrator) Handle(ctx context.Context, userKey, message string) (string, error) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return o.pack.Replies.InvalidInput, ErrEmptyMessage
	}
	if utf8.RuneCountInString(trimmed) > maxMessageRunes {
		return o.pack.Replies.InvalidInput, ErrMessageTooLong
	}

	if !o.limiter.Allow(userKey) {
		o.log.Debug("request throttled", "user", userKey)
		return o.pack.Replies.Throttled, ErrRateLimited
	}

	result := o.classifier.Classify(trimmed)
	o.log.Debug("message classified", "user", userKey, "kind", result.Kind)

	var reply string
	switch result.Kind {
	case classify.KindDefinition:
		reply = o.definitionPath(ctx, userKey, trimmed, result)
	case classify.KindCommon:
		reply = o.commonPath(result.Key)
	default:
		reply = o.completionPath(ctx, userKey, trimmed, result.Kind)
	}

	o.memory.Append(userKey, trimmed, reply)
	return reply, nil
}

// definitionPath serves a word definition, preferring the definition
// cache over the upstream dictionary. A missing word gets the fixed
// not-found reply and is never cached, so a later dictionary update is
// picked up immediately. A transient dictionary failure falls through to
// the completion path instead of surfacing an error.
func (o *Orchestrator) definitionPath(ctx context.Context, userKey, message string, result classify.Result) string {
	word := strings.ToLower(result.Word)

	if cached, ok := o.defCache.Get(word); ok {
		o.log.Debug("definition cache hit", "word", word)
		return cached
	}

	def, err := o.dict.Lookup(ctx, word)
	switch {
	case errors.Is(err, dictionary.ErrNotFound):
		return o.pack.Replies.DefinitionNotFound
	case err != nil:
		o.log.Warn("dictionary lookup failed, falling back to completion",
			"word", word, "error", err)
		return o.completionPath(ctx, userKey, message, classify.KindNormal)
	}

	reply := o.renderDefinition(def)
	o.defCache.Set(word, reply)
	return reply
}

// renderDefinition formats a dictionary entry as a chat reply.
func (o *Orchestrator) renderDefinition(def *dictionary.Definition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📖 %s: %s", def.Word, def.Definition)
	if def.Example != "" {
		fmt.Fprintf(&b, "\n💡 Example: %s", def.Example)
	}
	if len(def.Synonyms) > 0 {
		n := len(def.Synonyms)
		if n > 3 {
			n = 3
		}
		fmt.Fprintf(&b, "\n🔗 Synonyms: %s", strings.Join(def.Synonyms[:n], ", "))
	}
	b.WriteString("\n\n")
	b.WriteString(o.pack.Replies.DefinitionSuffix)
	return b.String()
}

// commonPath answers from the canned table. Variants are drawn at random
// so the replies are deliberately not cached.
func (o *Orchestrator) commonPath(key string) string {
	if reply, ok := o.pack.Respond(key); ok {
		return reply
	}
	// The classifier only emits keys it was built from, so this branch
	// means the pack and classifier went out of sync.
	o.log.Warn("canned key missing from persona pack", "key", key)
	return o.pack.Fallback()
}

// completionPath asks the model, consulting the response cache first.
// The cache key folds in the latest exchange so the same question asked
// in a different conversational context gets a fresh answer. A failed
// completion returns an in-character fallback line, which is recorded in
// memory but never cached.
func (o *Orchestrator) completionPath(ctx context.Context, userKey, message string, kind classify.Kind) string {
	key := o.completionCacheKey(userKey, message)
	if cached, ok := o.respCache.Get(key); ok {
		o.log.Debug("response cache hit", "user", userKey)
		return cached
	}

	req := llm.CompletionRequest{
		SystemPrompt: o.pack.Prompts.Short,
		UserMessage:  o.promptWithHistory(userKey, message),
		MaxTokens:    shortMaxTokens,
		Temperature:  temperature,
	}
	if kind == classify.KindLong {
		req.SystemPrompt = o.pack.Prompts.Long
		req.MaxTokens = longMaxTokens
	}

	reply, err := o.provider.Complete(ctx, req)
	if err != nil || reply == "" {
		o.log.Warn("completion failed, using fallback", "user", userKey, "error", err)
		return o.pack.Fallback()
	}

	o.respCache.Set(key, reply)
	return reply
}

// promptWithHistory prefixes the message with the sender's recent
// exchanges so the model can follow the thread.
func (o *Orchestrator) promptWithHistory(userKey, message string) string {
	transcript := o.memory.Transcript(userKey, historyTurns)
	if transcript == "" {
		return message
	}
	return "Recent conversation:\n" + transcript + "\nUser: " + message
}

// completionCacheKey derives the response-cache key from the normalized
// message plus a short digest of the sender's latest exchange.
func (o *Orchestrator) completionCacheKey(userKey, message string) string {
	normalized := strings.ToLower(strings.TrimSpace(message))
	latest := o.memory.Latest(userKey)
	if latest == nil {
		return normalized
	}
	sum := sha256.Sum256([]byte(latest.UserMessage + "\x00" + latest.AssistantResponse))
	return normalized + "|" + hex.EncodeToString(sum[:4])
}

// ClearMemory drops the sender's conversation history.
func (o *Orchestrator) ClearMemory(userKey string) {
	o.memory.Clear(userKey)
}

// Stats is a point-in-time snapshot of pipeline state.
type Stats struct {
	ResponseCacheSize   int `json:"response_cache_size"`
	DefinitionCacheSize int `json:"definition_cache_size"`
	ActiveConversations int `json:"active_conversations"`
	RateLimitedClients  int `json:"rate_limited_clients"`
}

// Snapshot reports current cache, memory, and limiter sizes.
func (o *Orchestrator) Snapshot() Stats {
	return Stats{
		ResponseCacheSize:   o.respCache.Len(),
		DefinitionCacheSize: o.defCache.Len(),
		ActiveConversations: o.memory.ActiveUsers(),
		RateLimitedClients:  o.limiter.ActiveClients(),
	}
}

// Sweep evicts expired cache entries, stale limiter windows, and idle
// conversations. It is meant to run on a schedule.
func (o *Orchestrator) Sweep(now time.Time) {
	responses := o.respCache.Cleanup(now)
	definitions := o.defCache.Cleanup(now)
	windows := o.limiter.Sweep(now)
	idle := o.memory.SweepIdle(now)
	if responses+definitions+windows+idle > 0 {
		o.log.Info("sweep complete",
			"responses", responses,
			"definitions", definitions,
			"limiter_windows", windows,
			"idle_conversations", idle,
		)
	}
}
