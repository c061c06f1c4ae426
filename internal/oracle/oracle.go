// Package oracle provides the client for the external natural-language
// interpretation service used for classification and decision parsing.
//
// The service returns free-form text that is expected to contain a
// structured JSON payload somewhere inside it. Callers never parse the
// raw text directly — they go through ExtractJSON, which tolerates
// surrounding prose and code fences and reports ErrMalformedOutput when
// no usable payload exists. The service is an uncontrolled remote
// dependency, so every call carries a bounded timeout and callers are
// expected to fall back to a conservative local result on failure.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrMalformedOutput signals that the oracle's response did not contain
// a payload of the expected shape. This is a recoverable condition:
// callers classify conservatively instead of failing the turn.
var ErrMalformedOutput = errors.New("oracle: malformed output")

// Oracle is the injected capability consulted for classification and
// parsing. Implementations must be safe for concurrent use across
// unrelated conversations.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds connection settings for the interpretation service.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns settings suitable for the hosted service.
func DefaultConfig() Config {
	return Config{
		Model:   "claude-sonnet-4-5-20250929",
		BaseURL: "https://api.anthropic.com",
		Timeout: 30 * time.Second,
	}
}

// Client talks to an Anthropic-compatible messages API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
	Error   *apiError      `json:"error,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewClient creates a Client. The API key is required; model, base URL,
// and timeout fall back to defaults when unset.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("oracle: API key is required")
	}
	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Complete sends one prompt and returns the raw text of the response.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: 1500,
		Messages:  []message{{Role: "user", Content: prompt}},
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("oracle: marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/messages", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("oracle: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("oracle: calling service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("oracle: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oracle: service returned status %d", resp.StatusCode)
	}

	var apiResp messagesResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("oracle: parsing response envelope: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("oracle: service error %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	if len(apiResp.Content) == 0 || apiResp.Content[0].Type != "text" {
		return "", fmt.Errorf("%w: response carries no text content", ErrMalformedOutput)
	}

	return apiResp.Content[0].Text, nil
}
