// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ariahq/aria/internal/model"
)

// =============================================================================
// SETTINGS FORM
// =============================================================================

// settingsField identifies a row in the settings form.
type settingsField int

const (
	fieldName settingsField = iota
	fieldAssistantName
	fieldPersonality
	fieldSpeakResponses
	fieldVoiceEnabled
	fieldClearHistory
	fieldCount
)

// Settings is the profile editor overlay. Edits accumulate in a working
// copy; the app commits it through the session manager when the user
// leaves the form.
type Settings struct {
	theme   *Theme
	profile model.UserProfile
	cursor  settingsField

	nameInput      textinput.Model
	assistantInput textinput.Model

	clearRequested bool
	width          int
	height         int
}

// NewSettings builds the settings form.
func NewSettings(theme *Theme) *Settings {
	name := textinput.New()
	name.Placeholder = "Your name"
	name.CharLimit = 64
	name.Width = 28

	assistant := textinput.New()
	assistant.Placeholder = model.DefaultAssistantName
	assistant.CharLimit = 64
	assistant.Width = 28

	return &Settings{
		theme:          theme,
		nameInput:      name,
		assistantInput: assistant,
	}
}

// SetSize updates the form dimensions after a resize.
func (s *Settings) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// Load resets the form to the given profile.
func (s *Settings) Load(profile model.UserProfile) {
	s.profile = profile
	s.cursor = fieldName
	s.clearRequested = false
	s.nameInput.SetValue(profile.Name)
	s.assistantInput.SetValue(profile.AssistantName)
	s.syncFocus()
}

// Profile returns the edited profile, normalized.
func (s *Settings) Profile() model.UserProfile {
	p := s.profile
	p.Name = strings.TrimSpace(s.nameInput.Value())
	p.AssistantName = strings.TrimSpace(s.assistantInput.Value())
	p.Normalize()
	return p
}

// ClearRequested reports whether the user asked to clear all history, and
// resets the flag.
func (s *Settings) ClearRequested() bool {
	req := s.clearRequested
	s.clearRequested = false
	return req
}

// MoveUp moves the cursor to the previous field.
func (s *Settings) MoveUp() {
	if s.cursor > 0 {
		s.cursor--
	}
	s.syncFocus()
}

// MoveDown moves the cursor to the next field.
func (s *Settings) MoveDown() {
	if s.cursor < fieldCount-1 {
		s.cursor++
	}
	s.syncFocus()
}

// CycleLeft adjusts the focused multi-value field backward.
func (s *Settings) CycleLeft() { s.cycle(-1) }

// CycleRight adjusts the focused multi-value field forward.
func (s *Settings) CycleRight() { s.cycle(1) }

// Activate handles enter on the focused field. Toggles flip, the clear
// action arms, text fields ignore it.
func (s *Settings) Activate() {
	switch s.cursor {
	case fieldPersonality:
		s.cycle(1)
	case fieldSpeakResponses:
		s.profile.SpeakResponses = !s.profile.SpeakResponses
	case fieldVoiceEnabled:
		s.profile.VoiceEnabled = !s.profile.VoiceEnabled
	case fieldClearHistory:
		s.clearRequested = true
	}
}

// EditingText reports whether the cursor is on a free-text field, so the
// app routes keystrokes to the input instead of form navigation.
func (s *Settings) EditingText() bool {
	return s.cursor == fieldName || s.cursor == fieldAssistantName
}

// UpdateInputs forwards a message to the focused text input.
func (s *Settings) UpdateInputs(msg tea.Msg) {
	switch s.cursor {
	case fieldName:
		s.nameInput, _ = s.nameInput.Update(msg)
	case fieldAssistantName:
		s.assistantInput, _ = s.assistantInput.Update(msg)
	}
}

func (s *Settings) cycle(dir int) {
	switch s.cursor {
	case fieldPersonality:
		idx := 0
		for i, p := range model.Personalities {
			if p == s.profile.Personality {
				idx = i
				break
			}
		}
		idx = (idx + dir + len(model.Personalities)) % len(model.Personalities)
		s.profile.Personality = model.Personalities[idx]
	case fieldSpeakResponses:
		s.profile.SpeakResponses = !s.profile.SpeakResponses
	case fieldVoiceEnabled:
		s.profile.VoiceEnabled = !s.profile.VoiceEnabled
	}
}

func (s *Settings) syncFocus() {
	s.nameInput.Blur()
	s.assistantInput.Blur()
	switch s.cursor {
	case fieldName:
		s.nameInput.Focus()
	case fieldAssistantName:
		s.assistantInput.Focus()
	}
}

// View renders the settings form.
func (s *Settings) View() string {
	title := s.theme.SettingsTitle.Render("Settings")

	rows := []string{
		s.row(fieldName, "Your name", s.nameInput.View()),
		s.row(fieldAssistantName, "Assistant name", s.assistantInput.View()),
		s.row(fieldPersonality, "Personality", s.theme.SettingsValue.Render("< "+s.profile.Personality.Label()+" >")),
		s.row(fieldSpeakResponses, "Speak responses", s.theme.SettingsValue.Render(onOff(s.profile.SpeakResponses))),
		s.row(fieldVoiceEnabled, "Voice input", s.theme.SettingsValue.Render(onOff(s.profile.VoiceEnabled))),
		s.row(fieldClearHistory, "Clear all history", s.theme.SettingsValue.Render("[Enter]")),
	}

	hint := s.theme.SettingsHint.Render("Up/Down move · Left/Right change · Enter toggle · Esc save & back")
	body := title + "\n\n" + strings.Join(rows, "\n") + "\n\n" + hint
	return s.theme.SettingsBox.Width(s.boxWidth()).Render(body)
}

func (s *Settings) row(field settingsField, label, value string) string {
	styled := s.theme.SettingsLabel.Render(fmt.Sprintf("%-18s", label))
	line := styled + " " + value
	if field == s.cursor {
		return s.theme.SettingsSelected.Render("> ") + line
	}
	return "  " + line
}

func (s *Settings) boxWidth() int {
	w := s.width - 8
	if w < 40 {
		w = 40
	}
	if w > 72 {
		w = 72
	}
	return w
}

func onOff(v bool) string {
	if v {
		return "On"
	}
	return "Off"
}
