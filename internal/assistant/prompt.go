// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"github.com/ariahq/aria/internal/model"
)

// =============================================================================
// SYSTEM PROMPT
// =============================================================================

// capabilitySuffix is appended to every system prompt.
const capabilitySuffix = " You assist with questions, tasks, planning, analysis, reminders, web searches, and more. For device tasks (calls, messages, apps), guide the user step by step."

// personalityTemplate returns the persona sentence for the given personality.
// The assistant name is substituted by the caller.
func personalityTemplate(p model.Personality, assistantName string) string {
	switch p {
	case model.PersonalityProfessional:
		return "You are " + assistantName + ", a professional AI personal assistant. Be precise, formal, and thorough."
	case model.PersonalityConcise:
		return "You are " + assistantName + ", a concise AI assistant. Give short, direct answers. No fluff."
	default:
		return "You are " + assistantName + ", a warm and helpful AI assistant. Be conversational, supportive, and proactive."
	}
}

// BuildSystemPrompt composes the system directive for a profile: an optional
// user-name sentence, the persona sentence, and the capability suffix.
func BuildSystemPrompt(profile model.UserProfile) string {
	prompt := ""
	if profile.Name != "" {
		prompt = "The user's name is " + profile.Name + ". "
	}
	prompt += personalityTemplate(profile.Personality, profile.DisplayAssistantName())
	prompt += capabilitySuffix
	return prompt
}
