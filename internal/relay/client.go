// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ariahq/aria/internal/logging"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultBaseURL is the relay endpoint used when none is configured.
	DefaultBaseURL = "http://localhost:5000"

	// DefaultConnectTimeout bounds dialing and response headers; the stream
	// itself is bounded by the caller's context.
	DefaultConnectTimeout = 30 * time.Second

	// maxErrorBodySize caps how much of a failed response body is read for
	// the error message.
	maxErrorBodySize = 64 * 1024
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrorType categorizes client failures.
type ErrorType string

const (
	// ErrTypeConnection covers dial failures, timeouts, and transport drops
	// before any frame arrived.
	ErrTypeConnection ErrorType = "connection"

	// ErrTypeBadStatus covers non-2xx responses from the relay.
	ErrTypeBadStatus ErrorType = "bad_status"

	// ErrTypeCanceled covers context cancellation.
	ErrTypeCanceled ErrorType = "canceled"
)

// ClientError is the error type returned by Client operations.
type ClientError struct {
	Type    ErrorType
	Message string
	Status  int // HTTP status, 0 when not applicable
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("relay: %s (HTTP %d): %s", e.Type, e.Status, e.Message)
	}
	return fmt.Sprintf("relay: %s: %s", e.Type, e.Message)
}

func (e *ClientError) Unwrap() error { return e.Cause }

// IsConnectionError reports whether err is a relay connection failure.
func IsConnectionError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Type == ErrTypeConnection
}

// =============================================================================
// CHAT TYPES
// =============================================================================

// ChatMessage is one turn of the conversation as sent to the relay.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the POST /api/chat body.
type chatRequest struct {
	Messages     []ChatMessage `json:"messages"`
	SystemPrompt string        `json:"systemPrompt,omitempty"`
}

// DeltaFunc receives each assistant text delta in arrival order.
type DeltaFunc func(delta string)

// =============================================================================
// CLIENT
// =============================================================================

// ClientConfig holds configuration for the relay client.
type ClientConfig struct {
	// BaseURL is the relay server base URL (default: http://localhost:5000).
	BaseURL string

	// ConnectTimeout bounds connection establishment and response headers
	// (default: 30 seconds).
	ConnectTimeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		BaseURL:        DefaultBaseURL,
		ConnectTimeout: DefaultConnectTimeout,
	}
}

// Client talks to the relay server. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a relay client. Zero-value config fields fall back to
// defaults.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			// No overall timeout: streams run until [DONE] or the caller's
			// context ends.
			Transport: &http.Transport{
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				ResponseHeaderTimeout: cfg.ConnectTimeout,
			},
		},
	}
}

// BaseURL returns the configured relay base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// ChatStream sends the conversation to the relay and invokes fn for each text
// delta as it arrives.
//
// A stream that ends without the [DONE] sentinel is treated as complete:
// everything received so far stands. Frames carrying an error field are
// logged and skipped, matching the relay's contract that an error frame ends
// the useful stream. Returns a *ClientError on transport or status failures.
func (c *Client) ChatStream(ctx context.Context, messages []ChatMessage, systemPrompt string, fn DeltaFunc) error {
	body, err := json.Marshal(chatRequest{Messages: messages, SystemPrompt: systemPrompt})
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return &ClientError{Type: ErrTypeCanceled, Message: "request canceled", Cause: ctx.Err()}
		}
		return &ClientError{Type: ErrTypeConnection, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := readErrorBody(resp.Body)
		return &ClientError{Type: ErrTypeBadStatus, Status: resp.StatusCode, Message: msg}
	}

	return c.consume(ctx, resp.Body, fn)
}

// consume drains the frame stream, forwarding deltas to fn.
func (c *Client) consume(ctx context.Context, body io.Reader, fn DeltaFunc) error {
	log := logging.Get()
	fr := NewFrameReader(body)

	for {
		select {
		case <-ctx.Done():
			return &ClientError{Type: ErrTypeCanceled, Message: "stream canceled", Cause: ctx.Err()}
		default:
		}

		f, err := fr.Next()
		if err != nil {
			if err == io.EOF {
				// Stream closed without [DONE]: keep what we have.
				return nil
			}
			if ctx.Err() != nil {
				return &ClientError{Type: ErrTypeCanceled, Message: "stream canceled", Cause: ctx.Err()}
			}
			return &ClientError{Type: ErrTypeConnection, Message: "stream read failed", Cause: err}
		}

		if f.Done {
			return nil
		}
		if f.Err != "" {
			log.Error("relay: stream error frame: %s", f.Err)
			continue
		}
		if f.Content != "" {
			log.Stream("delta", f.Content)
			fn(f.Content)
		}
	}
}

// readErrorBody extracts a short message from a failed response. The relay
// sends {"error":"..."} JSON; anything else is returned verbatim.
func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil || len(data) == 0 {
		return "no response body"
	}
	var env struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &env) == nil && env.Error != "" {
		return env.Error
	}
	return strings.TrimSpace(string(data))
}
