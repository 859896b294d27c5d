package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultModel   = "llama-3.1-8b-instant"
	defaultTimeout = 15 * time.Second
)

// Config configures the Groq (OpenAI-compatible) completion provider.
type Config struct {
	// APIKey is the bearer token used to authenticate against the API.
	APIKey string

	// BaseURL overrides the API endpoint. Useful for local models or any
	// other OpenAI-compatible endpoint. Defaults to the Groq API.
	BaseURL string

	// Model is the chat model to use. Defaults to llama-3.1-8b-instant.
	Model string

	// Timeout is the HTTP request timeout. Defaults to 15 s.
	Timeout time.Duration
}

// groqProvider implements Provider against the Groq chat completions API.
type groqProvider struct {
	cfg    Config
	client *http.Client
}

// New returns a Provider backed by the Groq (or compatible) chat API.
// The returned provider is safe for concurrent use.
func New(cfg Config) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &groqProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// --- minimal OpenAI-compatible wire types ---

type oaiRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

type oaiResponse struct {
	Choices []oaiChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type oaiChoice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Complete sends a single completion request and returns the generated
// text. Failures are mapped to the package sentinel errors; there are no
// automatic retries.
func (p *groqProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	body := oaiRequest{
		Model: p.cfg.Model,
		Messages: []Message{
			{Role: RoleSystem, Content: req.SystemPrompt},
			{Role: RoleUser, Content: req.UserMessage},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/chat/completions",
		bytes.NewReader(data),
	)
	if err != nil {
		return "", fmt.Errorf("llm: create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrService, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrService, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w (HTTP 429)", ErrRateLimit)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w (HTTP %d)", ErrService, resp.StatusCode)
	}

	var oaiResp oaiResponse
	if err := json.Unmarshal(respBody, &oaiResp); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrService, err)
	}
	if oaiResp.Error != nil {
		return "", fmt.Errorf("%w: %s (%s)", ErrService, oaiResp.Error.Message, oaiResp.Error.Type)
	}
	if len(oaiResp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrService)
	}

	return strings.TrimSpace(oaiResp.Choices[0].Message.Content), nil
}

// isTimeout reports whether err stems from a deadline, either the request
// context or the client-level timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var uerr *url.Error
	return errors.As(err, &uerr) && uerr.Timeout()
}
