// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// PERSONALITY TYPE
// =============================================================================

// Personality selects one of three fixed tone presets for the system
// directive sent with every request.
type Personality string

const (
	PersonalityProfessional Personality = "professional"
	PersonalityFriendly     Personality = "friendly"
	PersonalityConcise      Personality = "concise"
)

// Valid reports whether the personality is one of the three presets.
func (p Personality) Valid() bool {
	switch p {
	case PersonalityProfessional, PersonalityFriendly, PersonalityConcise:
		return true
	}
	return false
}

// Label returns a human-readable name for the personality.
func (p Personality) Label() string {
	switch p {
	case PersonalityProfessional:
		return "Professional"
	case PersonalityFriendly:
		return "Friendly"
	case PersonalityConcise:
		return "Concise"
	default:
		return string(p)
	}
}

// Personalities lists the presets in display order.
var Personalities = []Personality{
	PersonalityFriendly,
	PersonalityProfessional,
	PersonalityConcise,
}

// =============================================================================
// USER PROFILE
// =============================================================================

// DefaultAssistantName is used whenever the configured assistant name is empty.
const DefaultAssistantName = "ARIA"

// UserProfile holds per-installation preferences. It is a singleton: created
// with defaults on first run, mutated only by explicit edits, never deleted.
type UserProfile struct {
	Name           string      `json:"name"`
	AssistantName  string      `json:"assistantName"`
	Personality    Personality `json:"personality"`
	SpeakResponses bool        `json:"speakResponses"`
	VoiceEnabled   bool        `json:"voiceEnabled"`
}

// DefaultProfile returns the profile used on first run and as the merge base
// when loading a persisted profile.
func DefaultProfile() UserProfile {
	return UserProfile{
		Name:           "",
		AssistantName:  DefaultAssistantName,
		Personality:    PersonalityFriendly,
		SpeakResponses: false,
		VoiceEnabled:   false,
	}
}

// DisplayAssistantName returns the assistant name, falling back to the
// default when unset.
func (p UserProfile) DisplayAssistantName() string {
	if p.AssistantName == "" {
		return DefaultAssistantName
	}
	return p.AssistantName
}

// Normalize repairs fields that cannot be left invalid after a load or edit:
// an unknown personality falls back to friendly.
func (p *UserProfile) Normalize() {
	if !p.Personality.Valid() {
		p.Personality = PersonalityFriendly
	}
}
