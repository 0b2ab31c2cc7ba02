// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/ariahq/aria/internal/logging"
	"github.com/ariahq/aria/internal/relay"
	"github.com/ariahq/aria/internal/session"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyMessage indicates the message was empty or whitespace. Callers
	// typically treat it as a no-op.
	ErrEmptyMessage = errors.New("empty message")

	// ErrSendInFlight indicates a send is already streaming. Callers
	// typically treat it as a no-op.
	ErrSendInFlight = errors.New("send already in flight")
)

// ConnectionErrorReply is the assistant reply shown when a send fails for any
// reason. It replaces whatever partial content had streamed in.
const ConnectionErrorReply = "I'm having trouble connecting. Please check your connection and try again."

// =============================================================================
// EVENTS
// =============================================================================

// EventType identifies a point in the send lifecycle.
type EventType string

const (
	// EventUserAppended fires after the user message lands in the transcript,
	// before any network activity.
	EventUserAppended EventType = "user_appended"

	// EventTypingStarted fires when the typing indicator should show.
	EventTypingStarted EventType = "typing_started"

	// EventFirstDelta fires when the assistant message appears with its
	// first delta; the typing indicator should hide.
	EventFirstDelta EventType = "first_delta"

	// EventDelta fires for each subsequent delta.
	EventDelta EventType = "delta"

	// EventSettled fires when the turn is over, successfully or not.
	EventSettled EventType = "settled"
)

// Event describes a lifecycle notification.
type Event struct {
	Type           EventType
	ConversationID string
	Err            error // set on EventSettled after a failed send
}

// EventFunc receives controller events. Called from the sending goroutine.
type EventFunc func(Event)

// =============================================================================
// CONTROLLER
// =============================================================================

// StreamClient is the relay surface the controller needs.
type StreamClient interface {
	ChatStream(ctx context.Context, messages []relay.ChatMessage, systemPrompt string, fn relay.DeltaFunc) error
}

// Controller drives the streaming conversation flow.
type Controller struct {
	mu      sync.Mutex
	sending bool

	sessions *session.Manager
	client   StreamClient
	onEvent  EventFunc
}

// NewController creates a controller over the given session manager and relay
// client.
func NewController(sessions *session.Manager, client StreamClient) *Controller {
	return &Controller{
		sessions: sessions,
		client:   client,
	}
}

// SetEventFunc installs the lifecycle notification hook.
func (c *Controller) SetEventFunc(fn EventFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvent = fn
}

// IsStreaming reports whether a send is in flight.
func (c *Controller) IsStreaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// Sessions returns the underlying session manager.
func (c *Controller) Sessions() *session.Manager {
	return c.sessions
}

// SendMessage runs one full conversation turn: it appends the user message to
// the active conversation (creating one titled from the text when none is
// active), streams the assistant reply into the transcript, and settles.
//
// The call blocks until the turn is over. Empty or whitespace-only text
// returns ErrEmptyMessage; a send while another is streaming returns
// ErrSendInFlight. Both leave the transcript untouched.
//
// Any stream failure settles the turn with a fixed connection-trouble reply
// replacing partial content; SendMessage itself still returns nil because the
// turn completed from the transcript's point of view. The failure is reported
// on the EventSettled event.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return ErrSendInFlight
	}
	c.sending = true
	onEvent := c.onEvent
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
	}()

	log := logging.Get()

	// Resolve the target conversation before any network activity. The send
	// keeps targeting this conversation even if the user switches away
	// mid-stream.
	convID := c.sessions.ActiveID()
	if convID == "" {
		convID = c.sessions.CreateConversationForText(text)
	}

	if _, err := c.sessions.AppendUserMessage(convID, trimmed); err != nil {
		return err
	}
	emit(onEvent, Event{Type: EventUserAppended, ConversationID: convID})
	emit(onEvent, Event{Type: EventTypingStarted, ConversationID: convID})

	systemPrompt := BuildSystemPrompt(c.sessions.Profile())
	apiMessages := c.apiMessages(convID)

	var (
		assistantAdded bool
		streamBroken   bool
	)
	err := c.client.ChatStream(ctx, apiMessages, systemPrompt, func(delta string) {
		if streamBroken {
			return
		}
		if !assistantAdded {
			if _, aerr := c.sessions.AppendAssistantMessage(convID); aerr != nil {
				// Conversation deleted mid-stream; drain the rest silently.
				log.Error("assistant: conversation gone mid-stream: %v", aerr)
				streamBroken = true
				return
			}
			assistantAdded = true
			emit(onEvent, Event{Type: EventFirstDelta, ConversationID: convID})
		} else {
			emit(onEvent, Event{Type: EventDelta, ConversationID: convID})
		}
		if aerr := c.sessions.AppendDelta(convID, delta); aerr != nil {
			log.Error("assistant: append delta: %v", aerr)
			streamBroken = true
		}
	})

	if err != nil {
		log.Error("assistant: send failed: %v", err)
		c.settleWithError(convID, assistantAdded)
		emit(onEvent, Event{Type: EventSettled, ConversationID: convID, Err: err})
		return nil
	}

	emit(onEvent, Event{Type: EventSettled, ConversationID: convID})
	return nil
}

// apiMessages flattens the conversation into the relay wire form.
func (c *Controller) apiMessages(convID string) []relay.ChatMessage {
	conv := c.sessions.Get(convID)
	if conv == nil {
		return nil
	}
	out := make([]relay.ChatMessage, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		out = append(out, relay.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// settleWithError replaces the assistant reply with the fixed connection
// error text, appending the reply first when no delta ever arrived.
func (c *Controller) settleWithError(convID string, assistantAdded bool) {
	if !assistantAdded {
		if _, err := c.sessions.AppendAssistantMessage(convID); err != nil {
			return
		}
	}
	if err := c.sessions.SetLastContent(convID, ConnectionErrorReply); err != nil {
		logging.Get().Error("assistant: settle error reply: %v", err)
	}
}

func emit(fn EventFunc, e Event) {
	if fn != nil {
		fn(e)
	}
}
