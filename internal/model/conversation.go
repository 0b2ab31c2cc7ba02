// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/ariahq/aria/internal/util"
)

// =============================================================================
// TITLE CONSTANTS
// =============================================================================

const (
	// DefaultTitle is the placeholder for conversations with no user message.
	DefaultTitle = "New conversation"

	// ImplicitTitleRunes bounds the title when a conversation is created
	// implicitly by sending into an empty session.
	ImplicitTitleRunes = 40

	// FirstMessageTitleRunes bounds the title derived from the first user
	// message of an existing conversation.
	FirstMessageTitleRunes = 45
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds one chat thread: an ordered, append-only sequence of
// messages plus identity and timestamps. UpdatedAt is bumped on every message
// mutation, including in-place streaming growth of the last message.
type Conversation struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Messages  []*Message `json:"messages"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NewConversation creates an empty conversation with the placeholder title.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        generateConversationID(),
		Title:     DefaultTitle,
		Messages:  make([]*Message, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewConversationForText creates a conversation whose title is derived from
// the text about to be sent into it, bounded to ImplicitTitleRunes.
func NewConversationForText(text string) *Conversation {
	conv := NewConversation()
	conv.Title = util.TruncateRunesNoEllipsis(text, ImplicitTitleRunes)
	return conv
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message and bumps UpdatedAt.
// If this is the first message and it is a user message, the title is derived
// from its content (bounded to FirstMessageTitleRunes).
func (c *Conversation) AddMessage(msg *Message) {
	first := len(c.Messages) == 0
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()

	if first && msg.Role == RoleUser {
		c.Title = util.TruncateRunesNoEllipsis(msg.Content, FirstMessageTitleRunes)
	}
}

// AddUserMessage creates and appends a user message.
func (c *Conversation) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	c.AddMessage(msg)
	return msg
}

// AddAssistantMessage creates and appends an empty assistant message, the
// growing tail of an active stream.
func (c *Conversation) AddAssistantMessage() *Message {
	msg := NewAssistantMessage()
	c.AddMessage(msg)
	return msg
}

// AppendToLast grows the content of the last message in place.
// Streaming deltas never create new messages; they always land here.
func (c *Conversation) AppendToLast(delta string) {
	last := c.LastMessage()
	if last == nil {
		return
	}
	last.AppendContent(delta)
	c.UpdatedAt = time.Now()
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// =============================================================================
// DISPLAY HELPERS
// =============================================================================

// GetTitle returns the conversation title, falling back to the placeholder.
func (c *Conversation) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return DefaultTitle
}

// Preview returns a short preview of the most recent message.
func (c *Conversation) Preview(maxLen int) string {
	last := c.LastMessage()
	if last == nil {
		return ""
	}
	return last.Preview(maxLen)
}

// Clone creates a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	clone := &Conversation{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Messages:  make([]*Message, len(c.Messages)),
	}
	for i, msg := range c.Messages {
		msgCopy := *msg
		clone.Messages[i] = &msgCopy
	}
	return clone
}

// generateConversationID creates a unique conversation ID.
func generateConversationID() string {
	return "conv-" + uuid.NewString()
}
