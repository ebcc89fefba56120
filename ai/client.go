package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultTimeout = 60 * time.Second
)

// APIError is a non-2xx reply from the completion provider
type APIError struct {
	StatusCode int
	Model      string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("completion API error %d for model %s: %s", e.StatusCode, e.Model, e.Message)
	}
	return fmt.Sprintf("completion API error %d for model %s", e.StatusCode, e.Model)
}

// AuthRelated reports whether the error is an auth, credit or access
// rejection that another model on the same account may not hit
func (e *APIError) AuthRelated() bool {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusPaymentRequired, http.StatusForbidden:
		return true
	}
	return false
}

// ClientOptions configures the completion client
type ClientOptions struct {
	APIKey  string
	BaseURL string
	Referer string
	Title   string
	Timeout time.Duration
}

// Client talks to an OpenRouter-compatible chat completions endpoint
type Client struct {
	apiKey     string
	baseURL    string
	referer    string
	title      string
	httpClient *http.Client
}

// NewClient creates a completion client
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Client{
		apiKey:  opts.APIKey,
		baseURL: opts.BaseURL,
		referer: opts.Referer,
		title:   opts.Title,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}
}

// Configured reports whether an API key is present
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Complete sends a chat completion request for one model and returns the
// first choice's message content
func (c *Client) Complete(ctx context.Context, model string, messages []ChatMessage) (string, error) {
	reqBody := ChatRequest{
		Model:          model,
		Messages:       messages,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Model: model}
		var errResp ChatResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
			apiErr.Message = errResp.Error.Message
		}
		return "", apiErr
	}

	var apiResp ChatResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response for model %s", model)
	}
	return apiResp.Choices[0].Message.Content, nil
}
