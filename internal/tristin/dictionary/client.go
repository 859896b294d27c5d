// Package dictionary provides the outbound client for the free Dictionary
// API (dictionaryapi.dev), consumed only by the definition path.
package dictionary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://api.dictionaryapi.dev/api/v2/entries/en"
	defaultTimeout = 4 * time.Second

	// maxWordLen bounds the looked-up word; anything longer is not a word.
	maxWordLen = 50
)

// ErrNotFound is returned when the dictionary has no entry for the word.
// Callers reply with a fixed "couldn't find" message and must not cache
// the outcome.
var ErrNotFound = errors.New("dictionary: word not found")

// Definition is one dictionary entry, reduced to the fields the gateway
// renders.
type Definition struct {
	Word       string
	Definition string
	Example    string   // may be empty
	Synonyms   []string // may be empty
}

// Config configures the dictionary Client.
type Config struct {
	// BaseURL overrides the API endpoint. Defaults to dictionaryapi.dev.
	BaseURL string

	// Timeout is the HTTP request timeout. Defaults to 4 s: a hung
	// dictionary must not stall the request for long, since the caller
	// can still fall through to the completion path.
	Timeout time.Duration
}

// Client calls the dictionary API. It is safe for concurrent use.
type Client struct {
	cfg    Config
	client *http.Client
}

// New returns a Client with defaults applied.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// --- minimal dictionaryapi.dev wire types ---

type apiEntry struct {
	Word     string       `json:"word"`
	Meanings []apiMeaning `json:"meanings"`
}

type apiMeaning struct {
	PartOfSpeech string          `json:"partOfSpeech"`
	Definitions  []apiDefinition `json:"definitions"`
	Synonyms     []string        `json:"synonyms"`
}

type apiDefinition struct {
	Definition string   `json:"definition"`
	Example    string   `json:"example"`
	Synonyms   []string `json:"synonyms"`
}

// Lookup fetches the first definition of word. Returns ErrNotFound when
// the API has no entry (or the word is unusable); any other error is a
// transient upstream failure the caller may recover from.
func (c *Client) Lookup(ctx context.Context, word string) (*Definition, error) {
	if word == "" || len(word) > maxWordLen {
		return nil, ErrNotFound
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/"+url.PathEscape(word), nil)
	if err != nil {
		return nil, fmt.Errorf("dictionary: create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dictionary: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dictionary: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dictionary: read response: %w", err)
	}

	var entries []apiEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("dictionary: decode response: %w", err)
	}
	if len(entries) == 0 || len(entries[0].Meanings) == 0 || len(entries[0].Meanings[0].Definitions) == 0 {
		return nil, ErrNotFound
	}

	meaning := entries[0].Meanings[0]
	def := meaning.Definitions[0]

	synonyms := def.Synonyms
	if len(synonyms) == 0 {
		synonyms = meaning.Synonyms
	}

	return &Definition{
		Word:       word,
		Definition: def.Definition,
		Example:    def.Example,
		Synonyms:   synonyms,
	}, nil
}
