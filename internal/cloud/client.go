// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultBaseURL is the upstream chat completions base URL.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is the model requested when none is configured.
	DefaultModel = "gpt-5.2"

	// DefaultMaxTokens bounds the completion length.
	DefaultMaxTokens = 8192

	// DefaultConnectTimeout bounds connection establishment and response
	// headers. The stream body is bounded by the request context.
	DefaultConnectTimeout = 30 * time.Second

	// maxErrorBodySize caps how much of a failed response body is read.
	maxErrorBodySize = 64 * 1024
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("upstream API key not configured")

	// ErrAuthFailed indicates the upstream rejected the API key.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")
)

// UpstreamError represents a non-2xx response from the upstream API.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error (HTTP %d): %s", e.Status, e.Message)
}

// Is maps well-known statuses onto the sentinel errors.
func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrAuthFailed:
		return e.Status == http.StatusUnauthorized
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	}
	return false
}

// =============================================================================
// CHAT TYPES
// =============================================================================

// ChatMessage is a single message in the upstream request.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user", or "assistant"
	Content string `json:"content"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) ChatMessage {
	return ChatMessage{Role: "system", Content: content}
}

// ChatRequest is the chat completions request body.
type ChatRequest struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	Stream    bool          `json:"stream"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

// apiErrorResponse is the upstream error envelope.
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// ClientConfig holds configuration for the upstream client.
type ClientConfig struct {
	// APIKey authenticates against the upstream API. Required.
	APIKey string

	// BaseURL overrides the upstream base URL.
	BaseURL string

	// Model overrides the requested model.
	Model string

	// MaxTokens overrides the completion length bound.
	MaxTokens int

	// ConnectTimeout bounds dialing and response headers.
	ConnectTimeout time.Duration
}

// DefaultConfig returns the default upstream configuration (without an API
// key, which has no sane default).
func DefaultConfig() ClientConfig {
	return ClientConfig{
		BaseURL:        DefaultBaseURL,
		Model:          DefaultModel,
		MaxTokens:      DefaultMaxTokens,
		ConnectTimeout: DefaultConnectTimeout,
	}
}

// Client is an upstream chat completions client. Safe for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

// NewClient creates an upstream client. Zero-value config fields fall back to
// defaults. An empty API key is allowed; streaming calls then fail with
// ErrNotConfigured.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	return &Client{
		apiKey:    strings.TrimSpace(cfg.APIKey),
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		httpClient: &http.Client{
			// No overall timeout for streaming; bounded by request context.
			Transport: &http.Transport{
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				ResponseHeaderTimeout: cfg.ConnectTimeout,
				TLSHandshakeTimeout:   10 * time.Second,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
		},
	}
}

// IsConfigured returns true if the client has an API key.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// Model returns the configured model.
func (c *Client) Model() string { return c.model }

// setHeaders sets the required request headers.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "aria-relay/1.0")
}

// handleErrorResponse converts a non-2xx upstream response into an error.
func handleErrorResponse(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return &UpstreamError{Status: statusCode, Message: apiErr.Error.Message}
	}
	return &UpstreamError{Status: statusCode, Message: strings.TrimSpace(string(body))}
}

// readErrorBody reads a bounded amount of a failed response body.
func readErrorBody(r io.Reader) []byte {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	return data
}
