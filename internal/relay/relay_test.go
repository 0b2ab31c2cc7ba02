// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// chunkedReader yields the underlying data in fixed-size chunks so tests can
// split a data line across reads.
type chunkedReader struct {
	data []byte
	size int
	pos  int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	end := r.pos + r.size
	if end > len(r.data) {
		end = len(r.data)
	}
	n := copy(p, r.data[r.pos:end])
	r.pos += n
	return n, nil
}

// =============================================================================
// FRAME READER
// =============================================================================

func TestFrameReaderContentAndDone(t *testing.T) {
	input := "data: {\"content\":\"Hel\"}\n\n" +
		"data: {\"content\":\"lo\"}\n\n" +
		"data: [DONE]\n\n"

	fr := NewFrameReader(strings.NewReader(input))

	f, err := fr.Next()
	if err != nil || f.Content != "Hel" {
		t.Fatalf("frame 1 = %+v, %v; want content %q", f, err, "Hel")
	}
	f, err = fr.Next()
	if err != nil || f.Content != "lo" {
		t.Fatalf("frame 2 = %+v, %v; want content %q", f, err, "lo")
	}
	f, err = fr.Next()
	if err != nil || !f.Done {
		t.Fatalf("frame 3 = %+v, %v; want done", f, err)
	}
	if _, err = fr.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF after done, got %v", err)
	}
}

func TestFrameReaderSkipsMalformedLines(t *testing.T) {
	input := "data: {not json}\n\n" +
		": comment line\n" +
		"event: ping\n" +
		"data: {\"content\":\"ok\"}\n\n" +
		"data: [DONE]\n\n"

	fr := NewFrameReader(strings.NewReader(input))

	f, err := fr.Next()
	if err != nil || f.Content != "ok" {
		t.Fatalf("frame = %+v, %v; want content %q", f, err, "ok")
	}
	f, err = fr.Next()
	if err != nil || !f.Done {
		t.Fatalf("frame = %+v, %v; want done", f, err)
	}
}

func TestFrameReaderErrorFrame(t *testing.T) {
	input := "data: {\"error\":\"Stream error\"}\n\n"
	fr := NewFrameReader(strings.NewReader(input))

	f, err := fr.Next()
	if err != nil || f.Err != "Stream error" {
		t.Fatalf("frame = %+v, %v; want error frame", f, err)
	}
	if _, err = fr.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestFrameReaderLineSplitAcrossChunks(t *testing.T) {
	input := "data: {\"content\":\"unbroken delta\"}\n\ndata: [DONE]\n\n"

	// Two bytes per read guarantees every line spans many chunks.
	fr := NewFrameReader(&chunkedReader{data: []byte(input), size: 2})

	f, err := fr.Next()
	if err != nil || f.Content != "unbroken delta" {
		t.Fatalf("frame = %+v, %v; want reassembled content", f, err)
	}
	f, err = fr.Next()
	if err != nil || !f.Done {
		t.Fatalf("frame = %+v, %v; want done", f, err)
	}
}

func TestFrameReaderFinalLineWithoutNewline(t *testing.T) {
	input := "data: {\"content\":\"tail\"}"
	fr := NewFrameReader(strings.NewReader(input))

	f, err := fr.Next()
	if err != nil || f.Content != "tail" {
		t.Fatalf("frame = %+v, %v; want trailing content", f, err)
	}
	if _, err = fr.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

// =============================================================================
// CLIENT
// =============================================================================

func TestChatStreamAccumulatesDeltas(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"content\":\"Hel\"}\n\n")
		io.WriteString(w, "data: {\"content\":\"lo\"}\n\n")
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	var out strings.Builder
	err := c.ChatStream(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, "be brief", func(d string) {
		out.WriteString(d)
	})
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}
	if out.String() != "Hello" {
		t.Errorf("accumulated = %q, want %q", out.String(), "Hello")
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Content != "hi" {
		t.Errorf("request messages = %+v", gotReq.Messages)
	}
	if gotReq.SystemPrompt != "be brief" {
		t.Errorf("systemPrompt = %q", gotReq.SystemPrompt)
	}
}

func TestChatStreamBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"Failed to get AI response"}`)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	err := c.ChatStream(context.Background(), nil, "", func(string) {})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *ClientError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ClientError, got %T", err)
	}
	if ce.Type != ErrTypeBadStatus || ce.Status != http.StatusInternalServerError {
		t.Errorf("error = %+v", ce)
	}
	if ce.Message != "Failed to get AI response" {
		t.Errorf("message = %q", ce.Message)
	}
}

func TestChatStreamConnectionRefused(t *testing.T) {
	// A server that is immediately closed leaves a port nothing listens on.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(ClientConfig{BaseURL: url})
	err := c.ChatStream(context.Background(), nil, "", func(string) {})
	if !IsConnectionError(err) {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestChatStreamAbruptCloseIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"content\":\"partial\"}\n\n")
		// Connection closes without [DONE].
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	var out strings.Builder
	err := c.ChatStream(context.Background(), nil, "", func(d string) { out.WriteString(d) })
	if err != nil {
		t.Fatalf("expected success on abrupt close, got %v", err)
	}
	if out.String() != "partial" {
		t.Errorf("accumulated = %q, want %q", out.String(), "partial")
	}
}

func TestChatStreamErrorFrameSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"content\":\"before\"}\n\n")
		io.WriteString(w, "data: {\"error\":\"Stream error\"}\n\n")
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	var out strings.Builder
	err := c.ChatStream(context.Background(), nil, "", func(d string) { out.WriteString(d) })
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}
	if out.String() != "before" {
		t.Errorf("accumulated = %q, want %q", out.String(), "before")
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(ClientConfig{})
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("base URL = %q, want %q", c.BaseURL(), DefaultBaseURL)
	}
	c = NewClient(ClientConfig{BaseURL: "http://relay:9000/"})
	if c.BaseURL() != "http://relay:9000" {
		t.Errorf("base URL = %q, want trailing slash trimmed", c.BaseURL())
	}
}
