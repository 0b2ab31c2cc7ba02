// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/ariahq/aria/internal/cloud"
	"github.com/ariahq/aria/internal/logging"
	"github.com/ariahq/aria/internal/telemetry"
	"github.com/ariahq/aria/internal/util"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// MaxRequestBodySize caps the chat request body (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// MaxMessageCount caps the conversation length in one request.
	MaxMessageCount = 200

	// Version is the relay version reported by /health.
	Version = "1.0.0"
)

// DefaultSystemPrompt is used when the client sends no system prompt.
const DefaultSystemPrompt = `You are ARIA (Advanced Reasoning Intelligence Assistant), a sophisticated AI personal assistant. You are helpful, intelligent, and conversational. You can assist with a wide range of tasks including answering questions, giving advice, helping with planning, analysis, creative writing, coding, and much more.

Keep responses concise and direct unless asked for detailed explanations. Be warm but professional. Remember context from earlier in the conversation.

When users ask you to help with tasks like setting reminders, sending messages, or opening apps, explain that these device integrations require the user to follow your instructions manually, and guide them step by step.

Always be proactive in offering help and suggestions.`

// validRoles is the set of acceptable message roles.
var validRoles = map[string]bool{
	"user":      true,
	"assistant": true,
	"system":    true,
}

// ============================================================================
// TYPES
// ============================================================================

// ChatMessage is one conversation turn in the chat request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the POST /api/chat body. Messages stays a pointer so a
// missing array is distinguishable from an empty one.
type chatRequest struct {
	Messages     *[]ChatMessage `json:"messages"`
	SystemPrompt string         `json:"systemPrompt"`
}

// UpstreamClient is the model API surface the relay needs.
type UpstreamClient interface {
	ChatStream(ctx context.Context, messages []cloud.ChatMessage, callback cloud.StreamCallback) error
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the relay HTTP server.
type Server struct {
	addr   string
	router *http.ServeMux
	server *http.Server

	upstream     UpstreamClient
	stats        *telemetry.Stats
	usage        *telemetry.UsageStore
	systemPrompt string
}

// NewServer creates a relay server listening on addr, fronting upstream.
func NewServer(addr string, upstream UpstreamClient) *Server {
	s := &Server{
		addr:         addr,
		router:       http.NewServeMux(),
		upstream:     upstream,
		stats:        telemetry.NewStats(),
		systemPrompt: DefaultSystemPrompt,
	}
	s.setupRoutes()
	return s
}

// WithUsageStore enables persistent usage recording.
func (s *Server) WithUsageStore(store *telemetry.UsageStore) *Server {
	s.usage = store
	return s
}

// WithSystemPrompt overrides the default system prompt applied when the
// client sends none.
func (s *Server) WithSystemPrompt(prompt string) *Server {
	if prompt != "" {
		s.systemPrompt = prompt
	}
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.addr }

// Stats returns the server's stats tracker.
func (s *Server) Stats() *telemetry.Stats { return s.stats }

// Handler returns the complete handler with middleware applied. Exposed for
// tests.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(),
		LoggingMiddleware(),
	)(s.router)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /api/chat", s.handleChat)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /stats", s.handleStats)
}

// ============================================================================
// CHAT HANDLER
// ============================================================================

// handleChat handles POST /api/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	s.stats.RecordRequest()
	start := time.Now()
	log := logging.Get()

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("server: invalid chat request: %v", err)
		s.stats.RecordBadRequest()
		s.writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	if req.Messages == nil {
		s.stats.RecordBadRequest()
		s.writeError(w, http.StatusBadRequest, "messages array is required")
		return
	}
	messages := *req.Messages
	if len(messages) > MaxMessageCount {
		s.stats.RecordBadRequest()
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("too many messages (max %d)", MaxMessageCount))
		return
	}
	for i, m := range messages {
		if !validRoles[m.Role] {
			s.stats.RecordBadRequest()
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid role %q at message %d", m.Role, i))
			return
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	systemPrompt := req.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = s.systemPrompt
	}
	upstreamMsgs := make([]cloud.ChatMessage, 0, len(messages)+1)
	upstreamMsgs = append(upstreamMsgs, cloud.NewSystemMessage(systemPrompt))
	promptChars := 0
	for _, m := range messages {
		promptChars += util.RuneLen(m.Content)
		upstreamMsgs = append(upstreamMsgs, cloud.ChatMessage{Role: m.Role, Content: m.Content})
	}

	// SSE headers are deferred until the first delta so a pre-stream upstream
	// failure can still produce a clean 500.
	started := false
	responseChars := 0

	err := s.upstream.ChatStream(r.Context(), upstreamMsgs, func(chunk cloud.StreamChunk) {
		content := chunk.GetContent()
		if content == "" {
			return
		}
		if !started {
			writeSSEHeaders(w)
			started = true
		}
		writeFrame(w, map[string]string{"content": content})
		flusher.Flush()
		s.stats.RecordDelta(len(content))
		responseChars += util.RuneLen(content)
	})

	if err != nil {
		log.Error("server: chat stream: %v", err)
		s.stats.RecordStreamError()
		if !started {
			s.writeError(w, http.StatusInternalServerError, "Failed to get AI response")
		} else {
			writeFrame(w, map[string]string{"error": "Stream error"})
			flusher.Flush()
		}
		s.recordUsage(start, len(messages), promptChars, responseChars, false)
		return
	}

	if !started {
		writeSSEHeaders(w)
	}
	io.WriteString(w, "data: [DONE]\n\n")
	flusher.Flush()
	s.stats.RecordStreamOK()
	s.recordUsage(start, len(messages), promptChars, responseChars, true)
}

// writeSSEHeaders commits the response as an event stream.
func writeSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
}

// writeFrame emits one data frame.
func writeFrame(w io.Writer, payload map[string]string) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

// recordUsage persists one usage row, best effort.
func (s *Server) recordUsage(start time.Time, messageCount, promptChars, responseChars int, ok bool) {
	if s.usage == nil {
		return
	}
	rec := telemetry.UsageRecord{
		Timestamp:     start,
		MessageCount:  messageCount,
		PromptChars:   promptChars,
		ResponseChars: responseChars,
		Duration:      time.Since(start),
		OK:            ok,
	}
	if err := s.usage.Record(rec); err != nil {
		logging.Get().Error("server: record usage: %v", err)
	}
}

// ============================================================================
// HEALTH AND STATS
// ============================================================================

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": Version,
	})
}

// handleStats handles GET /stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.stats.Snapshot())
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// Start runs the server until it fails or Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:     s.addr,
		Handler:  s.Handler(),
		ErrorLog: log.New(logging.Get().Writer(), "server: ", log.LstdFlags),
		// No WriteTimeout: chat streams are open-ended.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	logging.Get().Info("server: listening on %s (version %s)", s.addr, Version)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response in the relay's flat shape.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
