// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ariahq/aria/internal/model"
	"github.com/ariahq/aria/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrCorruptRecord indicates a record file existed but could not be
	// decoded. Loads wrap this rather than silently discarding user data.
	ErrCorruptRecord = errors.New("corrupt record")
)

// StoreError wraps a failure against a specific record file.
type StoreError struct {
	Record string // base filename of the record
	Op     string // "load" or "save"
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Record, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// =============================================================================
// STORE
// =============================================================================

const (
	conversationsFile = "conversations.json"
	activeIDFile      = "active_id.json"
	profileFile       = "profile.json"

	dirPerm  = 0o755
	filePerm = 0o644
)

// Store reads and writes the persisted session records. It is safe for use by
// a single goroutine; callers that share a Store serialize access themselves
// (session.Manager holds the lock).
type Store struct {
	dir string
}

// NewStore returns a Store rooted at ~/.aria.
func NewStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("storage: resolve home dir: %w", err)
	}
	return NewStoreWithDir(filepath.Join(home, ".aria"))
}

// NewStoreWithDir returns a Store rooted at dir, creating it if needed.
func NewStoreWithDir(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("storage: create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the data directory backing this store.
func (s *Store) Dir() string { return s.dir }

// =============================================================================
// CONVERSATIONS
// =============================================================================

// LoadConversations returns the persisted conversation list, newest first.
// A missing file yields an empty slice.
func (s *Store) LoadConversations() ([]*model.Conversation, error) {
	data, err := s.read(conversationsFile)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return []*model.Conversation{}, nil
	}
	var convs []*model.Conversation
	if err := json.Unmarshal(data, &convs); err != nil {
		return nil, &StoreError{Record: conversationsFile, Op: "load", Err: fmt.Errorf("%w: %v", ErrCorruptRecord, err)}
	}
	if convs == nil {
		convs = []*model.Conversation{}
	}
	return convs, nil
}

// SaveConversations rewrites the full conversation list.
func (s *Store) SaveConversations(convs []*model.Conversation) error {
	if convs == nil {
		convs = []*model.Conversation{}
	}
	return s.write(conversationsFile, convs)
}

// =============================================================================
// ACTIVE CONVERSATION ID
// =============================================================================

// LoadActiveID returns the persisted active-conversation id, or "" when none
// has been recorded.
func (s *Store) LoadActiveID() (string, error) {
	data, err := s.read(activeIDFile)
	if err != nil {
		return "", err
	}
	if data == nil {
		return "", nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return "", &StoreError{Record: activeIDFile, Op: "load", Err: fmt.Errorf("%w: %v", ErrCorruptRecord, err)}
	}
	return id, nil
}

// SaveActiveID records id as the active conversation. Empty is valid and
// means no conversation is active.
func (s *Store) SaveActiveID(id string) error {
	return s.write(activeIDFile, id)
}

// =============================================================================
// PROFILE
// =============================================================================

// LoadProfile returns the persisted user profile merged over defaults, so
// fields absent from an older record pick up their default values. A missing
// file yields the default profile.
func (s *Store) LoadProfile() (model.UserProfile, error) {
	profile := model.DefaultProfile()
	data, err := s.read(profileFile)
	if err != nil {
		return profile, err
	}
	if data == nil {
		return profile, nil
	}
	if err := json.Unmarshal(data, &profile); err != nil {
		return model.DefaultProfile(), &StoreError{Record: profileFile, Op: "load", Err: fmt.Errorf("%w: %v", ErrCorruptRecord, err)}
	}
	profile.Normalize()
	return profile, nil
}

// SaveProfile rewrites the user profile.
func (s *Store) SaveProfile(profile model.UserProfile) error {
	profile.Normalize()
	return s.write(profileFile, profile)
}

// =============================================================================
// INTERNAL
// =============================================================================

// read returns the record's bytes, or (nil, nil) when the file does not exist.
func (s *Store) read(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &StoreError{Record: name, Op: "load", Err: err}
	}
	return data, nil
}

func (s *Store) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &StoreError{Record: name, Op: "save", Err: err}
	}
	if err := util.AtomicWriteFile(filepath.Join(s.dir, name), data, filePerm); err != nil {
		return &StoreError{Record: name, Op: "save", Err: err}
	}
	return nil
}
