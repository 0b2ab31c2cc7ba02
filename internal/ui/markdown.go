// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// MarkdownRenderer renders assistant replies as terminal markdown. A nil
// inner renderer (construction failed, or markdown disabled) degrades to
// plain text so the transcript always displays something.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
}

// NewMarkdownRenderer builds a renderer for the given theme and wrap width.
// theme is one of "dark", "light", or "auto".
func NewMarkdownRenderer(theme string, width int) *MarkdownRenderer {
	if width <= 0 {
		width = 80
	}
	style := glamour.WithAutoStyle()
	switch theme {
	case "dark":
		style = glamour.WithStandardStyle("dark")
	case "light":
		style = glamour.WithStandardStyle("light")
	}
	r, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		return NewPlainRenderer(width)
	}
	return &MarkdownRenderer{renderer: r, width: width}
}

// NewPlainRenderer returns a renderer that passes text through untouched.
func NewPlainRenderer(width int) *MarkdownRenderer {
	if width <= 0 {
		width = 80
	}
	return &MarkdownRenderer{width: width}
}

// Plain reports whether markdown rendering is inactive, in which case the
// caller is responsible for its own wrapping.
func (m *MarkdownRenderer) Plain() bool {
	return m == nil || m.renderer == nil
}

// Render converts markdown to styled terminal output, falling back to the
// raw text on any rendering failure.
func (m *MarkdownRenderer) Render(text string) string {
	if m == nil || m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	// Glamour pads output with blank lines top and bottom.
	return strings.Trim(out, "\n")
}
