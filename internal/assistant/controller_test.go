// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ariahq/aria/internal/model"
	"github.com/ariahq/aria/internal/relay"
	"github.com/ariahq/aria/internal/session"
	"github.com/ariahq/aria/internal/storage"
)

// fakeClient scripts the relay side of a send.
type fakeClient struct {
	fn func(msgs []relay.ChatMessage, systemPrompt string, deliver relay.DeltaFunc) error
}

func (f *fakeClient) ChatStream(_ context.Context, msgs []relay.ChatMessage, systemPrompt string, deliver relay.DeltaFunc) error {
	return f.fn(msgs, systemPrompt, deliver)
}

func newTestController(t *testing.T, client StreamClient) (*Controller, *session.Manager) {
	t.Helper()
	store, err := storage.NewStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewStoreWithDir: %v", err)
	}
	sessions := session.NewManager(store)
	return NewController(sessions, client), sessions
}

func TestSendMessageStreamsReply(t *testing.T) {
	client := &fakeClient{fn: func(_ []relay.ChatMessage, _ string, deliver relay.DeltaFunc) error {
		deliver("Hel")
		deliver("lo")
		return nil
	}}
	c, sessions := newTestController(t, client)

	if err := c.SendMessage(context.Background(), "hi there"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	conv := sessions.Active()
	if conv == nil {
		t.Fatal("no active conversation")
	}
	if conv.MessageCount() != 2 {
		t.Fatalf("expected 2 messages, got %d", conv.MessageCount())
	}
	if conv.Messages[0].Role != model.RoleUser || conv.Messages[0].Content != "hi there" {
		t.Errorf("user message = %+v", conv.Messages[0])
	}
	if conv.Messages[1].Role != model.RoleAssistant || conv.Messages[1].Content != "Hello" {
		t.Errorf("assistant message = %+v", conv.Messages[1])
	}
}

func TestSendMessageEmptyIgnored(t *testing.T) {
	client := &fakeClient{fn: func(_ []relay.ChatMessage, _ string, _ relay.DeltaFunc) error {
		t.Error("network reached for empty message")
		return nil
	}}
	c, sessions := newTestController(t, client)

	if err := c.SendMessage(context.Background(), "   \n\t"); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if sessions.Count() != 0 {
		t.Error("empty send created a conversation")
	}
}

func TestSendMessageUserAppendedBeforeNetwork(t *testing.T) {
	var c *Controller
	var sessions *session.Manager
	client := &fakeClient{fn: func(msgs []relay.ChatMessage, _ string, _ relay.DeltaFunc) error {
		// By the time the stream opens, the user message must already be in
		// the transcript and in the request payload.
		conv := sessions.Active()
		if conv == nil || conv.MessageCount() != 1 {
			t.Error("user message not in transcript before network call")
		}
		if len(msgs) != 1 || msgs[0].Role != "user" || msgs[0].Content != "question" {
			t.Errorf("payload = %+v", msgs)
		}
		return nil
	}}
	c, sessions = newTestController(t, client)

	if err := c.SendMessage(context.Background(), "question"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
}

func TestSendMessageConcurrentRejected(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	client := &fakeClient{fn: func(_ []relay.ChatMessage, _ string, _ relay.DeltaFunc) error {
		close(started)
		<-release
		return nil
	}}
	c, sessions := newTestController(t, client)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := c.SendMessage(context.Background(), "first"); err != nil {
			t.Errorf("first send: %v", err)
		}
	}()

	<-started
	if !c.IsStreaming() {
		t.Error("IsStreaming false during send")
	}
	if err := c.SendMessage(context.Background(), "second"); !errors.Is(err, ErrSendInFlight) {
		t.Errorf("expected ErrSendInFlight, got %v", err)
	}
	close(release)
	wg.Wait()

	conv := sessions.Active()
	if conv == nil {
		t.Fatal("no active conversation")
	}
	for _, m := range conv.Messages {
		if m.Content == "second" {
			t.Error("rejected send still appended its message")
		}
	}
	if c.IsStreaming() {
		t.Error("IsStreaming true after settle")
	}
}

func TestSendMessageErrorReplacesPartial(t *testing.T) {
	client := &fakeClient{fn: func(_ []relay.ChatMessage, _ string, deliver relay.DeltaFunc) error {
		deliver("partial rep")
		return &relay.ClientError{Type: relay.ErrTypeConnection, Message: "dropped"}
	}}
	c, sessions := newTestController(t, client)

	var settled Event
	c.SetEventFunc(func(e Event) {
		if e.Type == EventSettled {
			settled = e
		}
	})

	if err := c.SendMessage(context.Background(), "hello"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	conv := sessions.Active()
	if conv.MessageCount() != 2 {
		t.Fatalf("expected 2 messages, got %d", conv.MessageCount())
	}
	if got := conv.LastMessage().Content; got != ConnectionErrorReply {
		t.Errorf("reply = %q, want fixed error text", got)
	}
	if settled.Err == nil {
		t.Error("settled event did not carry the failure")
	}
}

func TestSendMessagePreStreamFailure(t *testing.T) {
	client := &fakeClient{fn: func(_ []relay.ChatMessage, _ string, _ relay.DeltaFunc) error {
		return &relay.ClientError{Type: relay.ErrTypeBadStatus, Status: 500, Message: "boom"}
	}}
	c, sessions := newTestController(t, client)

	if err := c.SendMessage(context.Background(), "hello"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	conv := sessions.Active()
	if conv.MessageCount() != 2 {
		t.Fatalf("expected user + error reply, got %d messages", conv.MessageCount())
	}
	if got := conv.LastMessage().Content; got != ConnectionErrorReply {
		t.Errorf("reply = %q, want fixed error text", got)
	}
}

func TestSendMessageImplicitConversationTitle(t *testing.T) {
	client := &fakeClient{fn: func(_ []relay.ChatMessage, _ string, deliver relay.DeltaFunc) error {
		deliver("ok")
		return nil
	}}
	c, sessions := newTestController(t, client)

	long := "What's the weather in Paris today and tomorrow please"
	if err := c.SendMessage(context.Background(), long); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	conv := sessions.Active()
	if conv == nil {
		t.Fatal("no conversation created")
	}
	// First message into a brand-new conversation retitles at 45 runes.
	want := string([]rune(long)[:45])
	if conv.Title != want {
		t.Errorf("title = %q, want %q", conv.Title, want)
	}
}

func TestSendMessageExistingConversationKeepsTitle(t *testing.T) {
	client := &fakeClient{fn: func(_ []relay.ChatMessage, _ string, deliver relay.DeltaFunc) error {
		deliver("ok")
		return nil
	}}
	c, sessions := newTestController(t, client)

	if err := c.SendMessage(context.Background(), "first topic"); err != nil {
		t.Fatalf("first send: %v", err)
	}
	title := sessions.Active().Title

	if err := c.SendMessage(context.Background(), "completely different second topic"); err != nil {
		t.Fatalf("second send: %v", err)
	}
	if got := sessions.Active().Title; got != title {
		t.Errorf("title changed on second message: %q -> %q", title, got)
	}
}

func TestSendMessageTargetsOriginalConversation(t *testing.T) {
	var sessions *session.Manager
	var otherID string
	client := &fakeClient{fn: func(_ []relay.ChatMessage, _ string, deliver relay.DeltaFunc) error {
		// User switches to another conversation mid-stream.
		otherID = sessions.CreateConversation()
		deliver("routed")
		return nil
	}}
	c, s := newTestController(t, client)
	sessions = s

	origID := sessions.CreateConversation()
	if err := c.SendMessage(context.Background(), "stay here"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	orig := sessions.Get(origID)
	if orig == nil || orig.MessageCount() != 2 {
		t.Fatalf("original conversation = %+v", orig)
	}
	if got := orig.LastMessage().Content; got != "routed" {
		t.Errorf("reply landed elsewhere: %q", got)
	}
	if other := sessions.Get(otherID); other == nil || other.MessageCount() != 0 {
		t.Error("reply leaked into the switched-to conversation")
	}
}

func TestSendMessageEventOrder(t *testing.T) {
	client := &fakeClient{fn: func(_ []relay.ChatMessage, _ string, deliver relay.DeltaFunc) error {
		deliver("a")
		deliver("b")
		return nil
	}}
	c, _ := newTestController(t, client)

	var got []EventType
	c.SetEventFunc(func(e Event) { got = append(got, e.Type) })

	if err := c.SendMessage(context.Background(), "hi"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	want := []EventType{EventUserAppended, EventTypingStarted, EventFirstDelta, EventDelta, EventSettled}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	tests := []struct {
		name    string
		profile model.UserProfile
		want    string
	}{
		{
			name:    "friendly default without name",
			profile: model.DefaultProfile(),
			want:    "You are ARIA, a warm and helpful AI assistant. Be conversational, supportive, and proactive." + capabilitySuffix,
		},
		{
			name: "professional with name",
			profile: model.UserProfile{
				Name:          "Sam",
				AssistantName: "Nova",
				Personality:   model.PersonalityProfessional,
			},
			want: "The user's name is Sam. You are Nova, a professional AI personal assistant. Be precise, formal, and thorough." + capabilitySuffix,
		},
		{
			name: "concise",
			profile: model.UserProfile{
				AssistantName: "ARIA",
				Personality:   model.PersonalityConcise,
			},
			want: "You are ARIA, a concise AI assistant. Give short, direct answers. No fluff." + capabilitySuffix,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildSystemPrompt(tt.profile); got != tt.want {
				t.Errorf("BuildSystemPrompt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSendMessageUsesProfilePrompt(t *testing.T) {
	var gotPrompt string
	client := &fakeClient{fn: func(_ []relay.ChatMessage, systemPrompt string, _ relay.DeltaFunc) error {
		gotPrompt = systemPrompt
		return nil
	}}
	c, sessions := newTestController(t, client)
	sessions.UpdateProfile(model.UserProfile{Name: "Sam", AssistantName: "Nova", Personality: model.PersonalityConcise})

	if err := c.SendMessage(context.Background(), "hi"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if !strings.HasPrefix(gotPrompt, "The user's name is Sam. You are Nova, a concise AI assistant.") {
		t.Errorf("system prompt = %q", gotPrompt)
	}
}
