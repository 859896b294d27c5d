// Package classify maps a raw chat message to a routing category. The
// ordering is deliberate: definitions and canned replies are cheap and
// deterministic, so they are resolved before anything that would trigger
// an expensive completion call.
package classify

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Kind is the routing category of a message.
type Kind string

const (
	// KindDefinition means the user is asking for a word definition.
	KindDefinition Kind = "definition"
	// KindCommon means a canned-table key matched.
	KindCommon Kind = "common"
	// KindLong means the reply needs a large token budget.
	KindLong Kind = "long"
	// KindNormal is everything else, a short conversational turn.
	KindNormal Kind = "normal"
)

// Result is the outcome of classifying one message. Word is populated
// only for KindDefinition; Key only for KindCommon.
type Result struct {
	Kind Kind
	Word string // candidate word for dictionary lookup
	Key  string // matched canned-table key
}

// longInputThreshold is the message length (in runes) beyond which a
// message is routed to the long path regardless of content. Distinct from
// the orchestrator's absolute input cap.
const longInputThreshold = 1000

// definitionPatterns capture the candidate phrase of a definition request.
// Each capture may span a few words; the last token is the candidate.
var definitionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bdefine\s+((?:\w+\s+){0,2}\w+)`),
	regexp.MustCompile(`\bdefinition\s+of\s+((?:\w+\s+){0,2}\w+)`),
	regexp.MustCompile(`\bmeaning\s+of\s+((?:\w+\s+){0,2}\w+)`),
	regexp.MustCompile(`\bwhat\s+does\s+(\w+)\s+mean\b`),
	regexp.MustCompile(`\b(\w+)\s+means\b`),
}

// stopwords are tokens that can never be a definition candidate.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "you": {}, "me": {},
	"is": {}, "are": {}, "of": {}, "to": {}, "in": {},
}

// longIntentPatterns route long-form requests to the large token budget.
var longIntentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`write.*essay`),
	regexp.MustCompile(`essay about`),
	regexp.MustCompile(`write.*code`),
	regexp.MustCompile(`write.*letter`),
	regexp.MustCompile(`write.*story`),
	regexp.MustCompile(`write.*poem`),
	regexp.MustCompile(`explain.*in detail`),
	regexp.MustCompile(`detailed explanation`),
	regexp.MustCompile(`\bcomprehensive\b`),
	regexp.MustCompile(`\bsummarize\b`),
	regexp.MustCompile(`\banalysis\b`),
	regexp.MustCompile(`\banalyze\b`),
	regexp.MustCompile(`\bcompare\b`),
	regexp.MustCompile(`pros and cons`),
	regexp.MustCompile(`step by step`),
	regexp.MustCompile(`\btutorial\b`),
	regexp.MustCompile(`\bguide\b`),
	regexp.MustCompile(`\bhow to\b`),
	regexp.MustCompile(`project about`),
	regexp.MustCompile(`\breport\b`),
	regexp.MustCompile(`paragraph about`),
}

// Classifier is a pure, stateless message classifier. The only state it
// carries is precompiled patterns, including one phrase-boundary pattern
// per canned-table key.
type Classifier struct {
	canned []cannedMatcher
}

// cannedMatcher pairs a canned-table key with its boundary pattern, so
// "ok" never fires inside "broken" and "hi" never fires inside "history".
type cannedMatcher struct {
	key     string
	pattern *regexp.Regexp
}

// New returns a Classifier that recognizes the given canned-table keys.
func New(cannedKeys []string) *Classifier {
	matchers := make([]cannedMatcher, 0, len(cannedKeys))
	for _, key := range cannedKeys {
		matchers = append(matchers, cannedMatcher{
			key:     key,
			pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(key) + `\b`),
		})
	}
	return &Classifier{canned: matchers}
}

// Classify maps message to a Result. First match wins; the precedence is
// length cap, definition intent, canned keys, long-form intent, normal.
func (c *Classifier) Classify(message string) Result {
	lower := strings.ToLower(strings.TrimSpace(message))

	if utf8.RuneCountInString(message) > longInputThreshold {
		return Result{Kind: KindLong}
	}

	if word, ok := definitionCandidate(lower); ok {
		return Result{Kind: KindDefinition, Word: word}
	}

	for _, m := range c.canned {
		if lower == m.key || m.pattern.MatchString(lower) {
			return Result{Kind: KindCommon, Key: m.key}
		}
	}

	for _, p := range longIntentPatterns {
		if p.MatchString(lower) {
			return Result{Kind: KindLong}
		}
	}

	return Result{Kind: KindNormal}
}

// definitionCandidate extracts the word a definition request is about.
// The last token of the matched phrase is preferred; stopwords and tokens
// of ≤2 characters are rejected, in which case the next pattern is tried.
// Returns false when no pattern yields a usable candidate, letting the
// message fall through to the remaining classification rules.
func definitionCandidate(lower string) (string, bool) {
	for _, p := range definitionPatterns {
		m := p.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		tokens := strings.Fields(m[1])
		// Prefer the last token; walk backwards past stopwords and
		// too-short tokens ("define the word serendipity" → serendipity,
		// "define serendipity for me" → serendipity).
		for i := len(tokens) - 1; i >= 0; i-- {
			word := tokens[i]
			if len(word) <= 2 {
				continue
			}
			if _, stop := stopwords[word]; stop {
				continue
			}
			return word, true
		}
	}
	return "", false
}
