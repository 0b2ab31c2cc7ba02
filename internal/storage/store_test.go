// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ariahq/aria/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewStoreWithDir: %v", err)
	}
	return s
}

func TestLoadConversationsMissingFile(t *testing.T) {
	s := newTestStore(t)
	convs, err := s.LoadConversations()
	if err != nil {
		t.Fatalf("LoadConversations: %v", err)
	}
	if len(convs) != 0 {
		t.Errorf("expected empty list, got %d conversations", len(convs))
	}
}

func TestConversationsRoundTrip(t *testing.T) {
	s := newTestStore(t)

	c1 := model.NewConversationForText("first conversation")
	c1.AddUserMessage("hello there")
	c1.AddAssistantMessage()
	c1.AppendToLast("hi!")
	c2 := model.NewConversation()

	if err := s.SaveConversations([]*model.Conversation{c2, c1}); err != nil {
		t.Fatalf("SaveConversations: %v", err)
	}

	loaded, err := s.LoadConversations()
	if err != nil {
		t.Fatalf("LoadConversations: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(loaded))
	}
	if loaded[0].ID != c2.ID || loaded[1].ID != c1.ID {
		t.Error("conversation order not preserved")
	}
	if loaded[1].Title != c1.Title {
		t.Errorf("title = %q, want %q", loaded[1].Title, c1.Title)
	}
	if got := loaded[1].MessageCount(); got != 2 {
		t.Fatalf("expected 2 messages, got %d", got)
	}
	if got := loaded[1].LastMessage().Content; got != "hi!" {
		t.Errorf("assistant content = %q, want %q", got, "hi!")
	}
}

func TestConversationsDoubleLoadIdempotent(t *testing.T) {
	s := newTestStore(t)
	c := model.NewConversationForText("stable")
	if err := s.SaveConversations([]*model.Conversation{c}); err != nil {
		t.Fatalf("SaveConversations: %v", err)
	}

	first, err := s.LoadConversations()
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	second, err := s.LoadConversations()
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if len(first) != 1 || len(second) != 1 || first[0].ID != second[0].ID {
		t.Error("repeated loads disagree")
	}
}

func TestCorruptConversationsFile(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(s.Dir(), conversationsFile)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	_, err := s.LoadConversations()
	if err == nil {
		t.Fatal("expected error for corrupt file")
	}
	if !errors.Is(err, ErrCorruptRecord) {
		t.Errorf("expected ErrCorruptRecord, got %v", err)
	}
	var se *StoreError
	if !errors.As(err, &se) || se.Record != conversationsFile {
		t.Errorf("expected StoreError for %s, got %v", conversationsFile, err)
	}
}

func TestActiveIDRoundTrip(t *testing.T) {
	s := newTestStore(t)

	id, err := s.LoadActiveID()
	if err != nil {
		t.Fatalf("LoadActiveID: %v", err)
	}
	if id != "" {
		t.Errorf("expected empty id on first run, got %q", id)
	}

	if err := s.SaveActiveID("conv-abc"); err != nil {
		t.Fatalf("SaveActiveID: %v", err)
	}
	id, err = s.LoadActiveID()
	if err != nil {
		t.Fatalf("LoadActiveID: %v", err)
	}
	if id != "conv-abc" {
		t.Errorf("id = %q, want %q", id, "conv-abc")
	}

	if err := s.SaveActiveID(""); err != nil {
		t.Fatalf("SaveActiveID(empty): %v", err)
	}
	id, err = s.LoadActiveID()
	if err != nil {
		t.Fatalf("LoadActiveID: %v", err)
	}
	if id != "" {
		t.Errorf("expected cleared id, got %q", id)
	}
}

func TestLoadProfileMissingFileReturnsDefaults(t *testing.T) {
	s := newTestStore(t)
	p, err := s.LoadProfile()
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	want := model.DefaultProfile()
	if p != want {
		t.Errorf("profile = %+v, want defaults %+v", p, want)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	s := newTestStore(t)
	p := model.UserProfile{
		Name:          "Sam",
		AssistantName: "Nova",
		Personality:   model.PersonalityConcise,
	}
	if err := s.SaveProfile(p); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	loaded, err := s.LoadProfile()
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if loaded != p {
		t.Errorf("profile = %+v, want %+v", loaded, p)
	}
}

func TestLoadProfilePartialRecordMergesDefaults(t *testing.T) {
	s := newTestStore(t)
	// An older record that only knows the user's name.
	path := filepath.Join(s.Dir(), profileFile)
	if err := os.WriteFile(path, []byte(`{"name":"Sam"}`), 0o644); err != nil {
		t.Fatalf("write partial profile: %v", err)
	}

	p, err := s.LoadProfile()
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if p.Name != "Sam" {
		t.Errorf("Name = %q, want %q", p.Name, "Sam")
	}
	if p.AssistantName != model.DefaultAssistantName {
		t.Errorf("AssistantName = %q, want default %q", p.AssistantName, model.DefaultAssistantName)
	}
	if p.Personality != model.PersonalityFriendly {
		t.Errorf("Personality = %q, want default %q", p.Personality, model.PersonalityFriendly)
	}
}

func TestLoadProfileInvalidPersonalityNormalized(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(s.Dir(), profileFile)
	if err := os.WriteFile(path, []byte(`{"personality":"sassy"}`), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	p, err := s.LoadProfile()
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if p.Personality != model.PersonalityFriendly {
		t.Errorf("Personality = %q, want fallback %q", p.Personality, model.PersonalityFriendly)
	}
}
