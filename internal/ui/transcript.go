// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ariahq/aria/internal/model"
)

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// Transcript renders a conversation into styled terminal text for the
// chat viewport.
type Transcript struct {
	theme    *Theme
	markdown *MarkdownRenderer
	width    int
}

// NewTranscript builds a transcript renderer for the given display width.
func NewTranscript(theme *Theme, markdown *MarkdownRenderer, width int) *Transcript {
	if width < 20 {
		width = 20
	}
	return &Transcript{theme: theme, markdown: markdown, width: width}
}

// SetWidth updates the wrap width after a terminal resize.
func (t *Transcript) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	t.width = width
}

// Render produces the full transcript for a conversation, including the
// typing indicator while a reply is pending and no delta has arrived yet.
func (t *Transcript) Render(conv *model.Conversation, assistantName string, typing bool, spin string) string {
	if conv == nil || conv.IsEmpty() {
		return t.renderWelcome(assistantName)
	}

	var b strings.Builder
	first := true
	for _, msg := range conv.Messages {
		// An assistant message exists before its first delta lands; the
		// typing indicator stands in for it.
		if msg.Role == model.RoleAssistant && msg.IsEmpty() {
			continue
		}
		if !first {
			b.WriteString("\n")
		}
		first = false
		b.WriteString(t.renderMessage(msg, assistantName))
		b.WriteString("\n")
	}
	if typing {
		b.WriteString("\n")
		b.WriteString(t.renderTyping(assistantName, spin))
		b.WriteString("\n")
	}
	return b.String()
}

func (t *Transcript) renderMessage(msg *model.Message, assistantName string) string {
	ts := t.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))

	if msg.Role == model.RoleUser {
		label := t.theme.UserLabel.Render("You") + " " + ts
		body := t.theme.UserBubble.Render(wrapText(msg.Content, t.bubbleWidth()))
		return label + "\n" + body
	}

	label := t.theme.AssistantLabel.Render(assistantName) + " " + ts
	content := msg.Content
	if t.markdown.Plain() {
		content = wrapText(content, t.bubbleWidth())
	} else {
		content = t.markdown.Render(content)
	}
	body := t.theme.AssistantBubble.Render(content)
	return label + "\n" + body
}

func (t *Transcript) renderTyping(assistantName, spin string) string {
	return t.theme.AssistantLabel.Render(assistantName) + "\n" +
		t.theme.Typing.Render(fmt.Sprintf("%s thinking...", spin))
}

func (t *Transcript) renderWelcome(assistantName string) string {
	lines := []string{
		"",
		fmt.Sprintf("Hi, I'm %s.", assistantName),
		"",
		"Ask me anything to get started.",
		"",
		"Enter send · C-n new chat · C-o conversations · C-s settings",
		"",
	}
	body := strings.Join(lines, "\n")
	return lipgloss.PlaceHorizontal(t.width, lipgloss.Center, t.theme.Welcome.Render(body))
}

func (t *Transcript) bubbleWidth() int {
	w := t.width - 4
	if w < 16 {
		w = 16
	}
	return w
}

// wrapText wraps content to maxWidth columns using display width, so wide
// runes and emoji do not overflow the viewport.
func wrapText(content string, maxWidth int) string {
	if maxWidth <= 0 {
		return content
	}
	var out []string
	for _, line := range strings.Split(content, "\n") {
		if runewidth.StringWidth(line) <= maxWidth {
			out = append(out, line)
			continue
		}
		out = append(out, wrapLine(line, maxWidth)...)
	}
	return strings.Join(out, "\n")
}

func wrapLine(line string, maxWidth int) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{line}
	}

	var wrapped []string
	var cur strings.Builder
	curWidth := 0

	for _, word := range words {
		wordWidth := runewidth.StringWidth(word)

		// A single word wider than the line gets hard-broken.
		if wordWidth > maxWidth {
			if curWidth > 0 {
				wrapped = append(wrapped, cur.String())
				cur.Reset()
				curWidth = 0
			}
			wrapped = append(wrapped, breakWord(word, maxWidth)...)
			continue
		}

		if curWidth > 0 && curWidth+1+wordWidth > maxWidth {
			wrapped = append(wrapped, cur.String())
			cur.Reset()
			curWidth = 0
		}
		if curWidth > 0 {
			cur.WriteByte(' ')
			curWidth++
		}
		cur.WriteString(word)
		curWidth += wordWidth
	}
	if curWidth > 0 {
		wrapped = append(wrapped, cur.String())
	}
	return wrapped
}

func breakWord(word string, maxWidth int) []string {
	var parts []string
	var cur strings.Builder
	curWidth := 0
	for _, r := range word {
		rw := runewidth.RuneWidth(r)
		if curWidth+rw > maxWidth && curWidth > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			curWidth = 0
		}
		cur.WriteRune(r)
		curWidth += rw
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}
