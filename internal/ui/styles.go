// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// THEME
// =============================================================================

// Theme holds the styled components for the interface. It adapts to the
// terminal's color capability.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// Header
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderHint  lipgloss.Style

	// Message bubbles
	UserLabel       lipgloss.Style
	UserBubble      lipgloss.Style
	AssistantLabel  lipgloss.Style
	AssistantBubble lipgloss.Style
	Timestamp       lipgloss.Style

	// Typing indicator
	Typing lipgloss.Style

	// Input area
	InputContainer lipgloss.Style

	// Status bar
	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// Drawer
	DrawerBox      lipgloss.Style
	DrawerTitle    lipgloss.Style
	DrawerItem     lipgloss.Style
	DrawerSelected lipgloss.Style
	DrawerMeta     lipgloss.Style

	// Settings
	SettingsBox      lipgloss.Style
	SettingsTitle    lipgloss.Style
	SettingsLabel    lipgloss.Style
	SettingsValue    lipgloss.Style
	SettingsSelected lipgloss.Style
	SettingsHint     lipgloss.Style

	// Misc
	ErrorText lipgloss.Style
	Welcome   lipgloss.Style
}

// NewTheme builds the theme for the current terminal.
func NewTheme() *Theme {
	profile := termenv.ColorProfile()
	isDark := termenv.HasDarkBackground()

	accent := lipgloss.Color("12")   // blue
	userCol := lipgloss.Color("10")  // green
	dimCol := lipgloss.Color("8")    // gray
	errCol := lipgloss.Color("9")    // red

	return &Theme{
		IsDark:       isDark,
		ColorProfile: profile,

		Header: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(dimCol).
			Padding(0, 1),
		HeaderTitle: lipgloss.NewStyle().Bold(true).Foreground(accent),
		HeaderHint:  lipgloss.NewStyle().Foreground(dimCol),

		UserLabel: lipgloss.NewStyle().Bold(true).Foreground(userCol),
		UserBubble: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(userCol).
			Padding(0, 1),
		AssistantLabel: lipgloss.NewStyle().Bold(true).Foreground(accent),
		AssistantBubble: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(dimCol).
			Padding(0, 1),
		Timestamp: lipgloss.NewStyle().Foreground(dimCol),

		Typing: lipgloss.NewStyle().Foreground(accent).Italic(true),

		InputContainer: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(dimCol),

		StatusBar:    lipgloss.NewStyle().Foreground(dimCol),
		ShortcutKey:  lipgloss.NewStyle().Bold(true).Foreground(accent),
		ShortcutDesc: lipgloss.NewStyle().Foreground(dimCol),

		DrawerBox: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 2),
		DrawerTitle:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		DrawerItem:     lipgloss.NewStyle(),
		DrawerSelected: lipgloss.NewStyle().Bold(true).Foreground(accent).Reverse(true),
		DrawerMeta:     lipgloss.NewStyle().Foreground(dimCol),

		SettingsBox: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 2),
		SettingsTitle:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		SettingsLabel:    lipgloss.NewStyle().Bold(true),
		SettingsValue:    lipgloss.NewStyle(),
		SettingsSelected: lipgloss.NewStyle().Bold(true).Foreground(accent),
		SettingsHint:     lipgloss.NewStyle().Foreground(dimCol),

		ErrorText: lipgloss.NewStyle().Foreground(errCol),
		Welcome:   lipgloss.NewStyle().Foreground(dimCol).Italic(true),
	}
}
