// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"sync"

	"github.com/ariahq/aria/internal/logging"
	"github.com/ariahq/aria/internal/model"
	"github.com/ariahq/aria/internal/storage"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrConversationNotFound indicates the referenced conversation does not
	// exist (it may have been deleted while a send was in flight).
	ErrConversationNotFound = errors.New("conversation not found")
)

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager owns the session state: the conversation list (newest first), the
// active conversation id, and the user profile. All methods are safe for
// concurrent use.
type Manager struct {
	mu sync.Mutex

	conversations []*model.Conversation
	activeID      string
	profile       model.UserProfile

	store *storage.Store
}

// NewManager creates a manager backed by store and loads any persisted state.
// Load failures fall back to empty state so a corrupt record cannot prevent
// startup; the failure is logged for diagnosis. A nil store yields a purely
// in-memory session.
func NewManager(store *storage.Store) *Manager {
	m := &Manager{
		conversations: []*model.Conversation{},
		profile:       model.DefaultProfile(),
		store:         store,
	}
	if store == nil {
		return m
	}

	log := logging.Get()

	convs, err := store.LoadConversations()
	if err != nil {
		log.Error("session: load conversations: %v", err)
	} else {
		m.conversations = convs
	}

	activeID, err := store.LoadActiveID()
	if err != nil {
		log.Error("session: load active id: %v", err)
	} else if m.findLocked(activeID) != nil {
		m.activeID = activeID
	}

	profile, err := store.LoadProfile()
	if err != nil {
		log.Error("session: load profile: %v", err)
	} else {
		m.profile = profile
	}

	return m
}

// =============================================================================
// CONVERSATION ACCESS
// =============================================================================

// Conversations returns a snapshot of the conversation list, newest first.
// The returned conversations are deep copies; mutating them does not affect
// the session.
func (m *Manager) Conversations() []*model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*model.Conversation, len(m.conversations))
	for i, c := range m.conversations {
		out[i] = c.Clone()
	}
	return out
}

// ActiveID returns the active conversation id, or "" when none is active.
func (m *Manager) ActiveID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeID
}

// Active returns a copy of the active conversation, or nil when none is
// active.
func (m *Manager) Active() *model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c := m.findLocked(m.activeID); c != nil {
		return c.Clone()
	}
	return nil
}

// Get returns a copy of the conversation with the given id, or nil.
func (m *Manager) Get(id string) *model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c := m.findLocked(id); c != nil {
		return c.Clone()
	}
	return nil
}

// Count returns the number of conversations.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conversations)
}

// =============================================================================
// CONVERSATION MUTATION
// =============================================================================

// CreateConversation prepends a new empty conversation, makes it active, and
// returns its id.
func (m *Manager) CreateConversation() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := model.NewConversation()
	m.conversations = append([]*model.Conversation{c}, m.conversations...)
	m.activeID = c.ID

	m.persistConversationsLocked()
	m.persistActiveIDLocked()
	return c.ID
}

// CreateConversationForText prepends a new conversation titled from text,
// makes it active, and returns its id.
func (m *Manager) CreateConversationForText(text string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := model.NewConversationForText(text)
	m.conversations = append([]*model.Conversation{c}, m.conversations...)
	m.activeID = c.ID

	m.persistConversationsLocked()
	m.persistActiveIDLocked()
	return c.ID
}

// DeleteConversation removes the conversation with the given id. When the
// active conversation is deleted, the newest remaining conversation becomes
// active (or none, when the list is now empty). Deleting an unknown id is a
// no-op.
func (m *Manager) DeleteConversation(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i, c := range m.conversations {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	m.conversations = append(m.conversations[:idx], m.conversations[idx+1:]...)

	if m.activeID == id {
		if len(m.conversations) > 0 {
			m.activeID = m.conversations[0].ID
		} else {
			m.activeID = ""
		}
		m.persistActiveIDLocked()
	}

	m.persistConversationsLocked()
}

// SetActive makes the conversation with the given id active. Unknown ids are
// ignored.
func (m *Manager) SetActive(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findLocked(id) == nil {
		return
	}
	m.activeID = id
	m.persistActiveIDLocked()
}

// ClearHistory removes every conversation and clears the active id.
func (m *Manager) ClearHistory() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.conversations = []*model.Conversation{}
	m.activeID = ""

	m.persistConversationsLocked()
	m.persistActiveIDLocked()
}

// =============================================================================
// MESSAGE MUTATION
// =============================================================================

// AppendUserMessage adds a user message to the conversation with the given
// id and returns the appended message.
func (m *Manager) AppendUserMessage(convID, content string) (*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.findLocked(convID)
	if c == nil {
		return nil, ErrConversationNotFound
	}
	msg := c.AddUserMessage(content)
	m.persistConversationsLocked()
	return msg, nil
}

// AppendAssistantMessage adds an empty assistant message to the conversation
// with the given id, ready to receive streamed deltas.
func (m *Manager) AppendAssistantMessage(convID string) (*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.findLocked(convID)
	if c == nil {
		return nil, ErrConversationNotFound
	}
	msg := c.AddAssistantMessage()
	m.persistConversationsLocked()
	return msg, nil
}

// AppendDelta grows the last message of the conversation in place. The
// conversation may have been deleted mid-stream; that is reported as
// ErrConversationNotFound so the caller can stop streaming into it.
func (m *Manager) AppendDelta(convID, delta string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.findLocked(convID)
	if c == nil {
		return ErrConversationNotFound
	}
	c.AppendToLast(delta)
	m.persistConversationsLocked()
	return nil
}

// SetLastContent replaces the content of the conversation's last message.
// Used to settle a failed stream with a fixed error reply.
func (m *Manager) SetLastContent(convID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.findLocked(convID)
	if c == nil {
		return ErrConversationNotFound
	}
	last := c.LastMessage()
	if last == nil {
		return nil
	}
	last.Content = content
	m.persistConversationsLocked()
	return nil
}

// =============================================================================
// PROFILE
// =============================================================================

// Profile returns a copy of the user profile.
func (m *Manager) Profile() model.UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile
}

// UpdateProfile replaces the user profile, normalizing invalid fields.
func (m *Manager) UpdateProfile(p model.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.Normalize()
	m.profile = p
	m.persistProfileLocked()
}

// =============================================================================
// PERSISTENCE (best effort)
// =============================================================================

// Persistence never blocks a mutation: failures are logged and in-memory
// state stays authoritative.

func (m *Manager) persistConversationsLocked() {
	if m.store == nil {
		return
	}
	if err := m.store.SaveConversations(m.conversations); err != nil {
		logging.Get().Error("session: save conversations: %v", err)
	}
}

func (m *Manager) persistActiveIDLocked() {
	if m.store == nil {
		return
	}
	if err := m.store.SaveActiveID(m.activeID); err != nil {
		logging.Get().Error("session: save active id: %v", err)
	}
}

func (m *Manager) persistProfileLocked() {
	if m.store == nil {
		return
	}
	if err := m.store.SaveProfile(m.profile); err != nil {
		logging.Get().Error("session: save profile: %v", err)
	}
}

// findLocked returns the live conversation with the given id. Caller holds mu.
func (m *Manager) findLocked(id string) *model.Conversation {
	if id == "" {
		return nil
	}
	for _, c := range m.conversations {
		if c.ID == id {
			return c
		}
	}
	return nil
}
