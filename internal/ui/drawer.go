// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ariahq/aria/internal/model"
)

// =============================================================================
// CONVERSATION DRAWER
// =============================================================================

// Drawer is the conversation list overlay. It holds a snapshot of the
// conversations (newest first) and a cursor; the app applies selections
// and deletions back to the session manager.
type Drawer struct {
	theme         *Theme
	conversations []*model.Conversation
	activeID      string
	cursor        int
	width         int
	height        int
}

// NewDrawer builds an empty drawer.
func NewDrawer(theme *Theme) *Drawer {
	return &Drawer{theme: theme}
}

// SetSize updates the drawer dimensions after a resize.
func (d *Drawer) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// Reload replaces the drawer's snapshot and positions the cursor on the
// active conversation.
func (d *Drawer) Reload(conversations []*model.Conversation, activeID string) {
	d.conversations = conversations
	d.activeID = activeID
	d.cursor = 0
	for i, conv := range conversations {
		if conv.ID == activeID {
			d.cursor = i
			break
		}
	}
}

// MoveUp moves the cursor toward the newest conversation.
func (d *Drawer) MoveUp() {
	if d.cursor > 0 {
		d.cursor--
	}
}

// MoveDown moves the cursor toward the oldest conversation.
func (d *Drawer) MoveDown() {
	if d.cursor < len(d.conversations)-1 {
		d.cursor++
	}
}

// Selected returns the conversation under the cursor, or nil when the
// list is empty.
func (d *Drawer) Selected() *model.Conversation {
	if d.cursor < 0 || d.cursor >= len(d.conversations) {
		return nil
	}
	return d.conversations[d.cursor]
}

// View renders the drawer overlay.
func (d *Drawer) View() string {
	title := d.theme.DrawerTitle.Render("Conversations")

	var rows []string
	if len(d.conversations) == 0 {
		rows = append(rows, d.theme.DrawerMeta.Render("No conversations yet."))
	}
	for i, conv := range d.conversations {
		marker := "  "
		if conv.ID == d.activeID {
			marker = "* "
		}
		label := marker + runewidth.Truncate(conv.GetTitle(), d.rowWidth(), "…")
		meta := fmt.Sprintf("%d messages · %s", len(conv.Messages), conv.UpdatedAt.Format("Jan 2 15:04"))

		if i == d.cursor {
			rows = append(rows, d.theme.DrawerSelected.Render(label))
		} else {
			rows = append(rows, d.theme.DrawerItem.Render(label))
		}
		rows = append(rows, d.theme.DrawerMeta.Render("   "+meta))
		if preview := conv.Preview(d.rowWidth() - 3); preview != "" {
			preview = strings.ReplaceAll(preview, "\n", " ")
			rows = append(rows, d.theme.DrawerMeta.Render("   "+preview))
		}
	}

	hint := d.theme.DrawerMeta.Render("Enter open · n new · d delete · Esc back")
	body := title + "\n\n" + strings.Join(rows, "\n") + "\n\n" + hint
	return d.theme.DrawerBox.Width(d.boxWidth()).Render(body)
}

func (d *Drawer) boxWidth() int {
	w := d.width - 8
	if w < 30 {
		w = 30
	}
	if w > 72 {
		w = 72
	}
	return w
}

func (d *Drawer) rowWidth() int {
	return d.boxWidth() - 8
}
