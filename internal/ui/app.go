// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ariahq/aria/internal/assistant"
	"github.com/ariahq/aria/internal/config"
	"github.com/ariahq/aria/internal/logging"
)

// =============================================================================
// VIEW MODES
// =============================================================================

type viewMode int

const (
	modeChat viewMode = iota
	modeDrawer
	modeSettings
)

// =============================================================================
// MESSAGES
// =============================================================================

// assistantEventMsg carries one controller event from the background
// stream into the update loop.
type assistantEventMsg assistant.Event

// sendFinishedMsg signals that a SendMessage call returned.
type sendFinishedMsg struct{ err error }

// =============================================================================
// APP MODEL
// =============================================================================

// App is the root Bubble Tea model. The chat transcript lives in a
// viewport with a textarea below it; the conversation drawer and the
// settings form render as overlays.
type App struct {
	keys  KeyMap
	theme *Theme

	ctrl     *assistant.Controller
	events   chan assistant.Event
	uiConfig config.UIConfig

	mode       viewMode
	viewport   viewport.Model
	input      textarea.Model
	spinner    spinner.Model
	transcript *Transcript
	drawer     *Drawer
	settings   *Settings

	width  int
	height int
	ready  bool

	typing    bool
	streaming bool
	errText   string
}

// NewApp wires the interface to a controller. Controller events are
// forwarded through a buffered channel and drained by the update loop.
func NewApp(ctrl *assistant.Controller, uiConfig config.UIConfig) *App {
	theme := NewTheme()

	input := textarea.New()
	input.Placeholder = "Message..."
	input.Prompt = "> "
	input.CharLimit = 4000
	input.SetHeight(1)
	input.ShowLineNumbers = false
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Typing

	events := make(chan assistant.Event, 64)
	ctrl.SetEventFunc(func(e assistant.Event) {
		select {
		case events <- e:
		default:
			logging.Get().Debug("ui: dropping event %s, channel full", e.Type)
		}
	})

	app := &App{
		keys:     DefaultKeyMap(),
		theme:    theme,
		ctrl:     ctrl,
		events:   events,
		uiConfig: uiConfig,
		mode:     modeChat,
		input:    input,
		spinner:  sp,
		drawer:   NewDrawer(theme),
		settings: NewSettings(theme),
	}
	return app
}

// Run starts the Bubble Tea program in the alternate screen.
func Run(ctrl *assistant.Controller, uiConfig config.UIConfig) error {
	p := tea.NewProgram(NewApp(ctrl, uiConfig), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, a.listen())
}

// listen blocks on the event channel and delivers the next controller
// event as a message.
func (a *App) listen() tea.Cmd {
	return func() tea.Msg {
		return assistantEventMsg(<-a.events)
	}
}

// send runs the blocking SendMessage call off the update loop.
func (a *App) send(text string) tea.Cmd {
	return func() tea.Msg {
		return sendFinishedMsg{err: a.ctrl.SendMessage(context.Background(), text)}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case assistantEventMsg:
		return a.handleEvent(assistant.Event(msg))

	case sendFinishedMsg:
		a.streaming = false
		a.typing = false
		if msg.err != nil && !errors.Is(msg.err, assistant.ErrEmptyMessage) &&
			!errors.Is(msg.err, assistant.ErrSendInFlight) {
			a.errText = msg.err.Error()
		}
		a.refreshTranscript(true)
		return a, nil

	case spinner.TickMsg:
		if !a.typing {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		a.refreshTranscript(false)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleEvent(e assistant.Event) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{a.listen()}

	switch e.Type {
	case assistant.EventUserAppended:
		a.errText = ""
		a.refreshTranscript(true)
	case assistant.EventTypingStarted:
		a.typing = true
		cmds = append(cmds, a.spinner.Tick)
		a.refreshTranscript(true)
	case assistant.EventFirstDelta:
		a.typing = false
		a.refreshTranscript(true)
	case assistant.EventDelta:
		a.refreshTranscript(true)
	case assistant.EventSettled:
		a.typing = false
		a.refreshTranscript(true)
	}
	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.Quit) {
		return a, tea.Quit
	}

	switch a.mode {
	case modeDrawer:
		return a.handleDrawerKey(msg)
	case modeSettings:
		return a.handleSettingsKey(msg)
	default:
		return a.handleChatKey(msg)
	}
}

func (a *App) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Submit):
		text := strings.TrimSpace(a.input.Value())
		if text == "" || a.streaming {
			return a, nil
		}
		a.input.Reset()
		a.streaming = true
		return a, a.send(text)

	case key.Matches(msg, a.keys.NewChat):
		a.ctrl.Sessions().CreateConversation()
		a.errText = ""
		a.refreshTranscript(true)
		return a, nil

	case key.Matches(msg, a.keys.Conversations):
		a.drawer.Reload(a.ctrl.Sessions().Conversations(), a.ctrl.Sessions().ActiveID())
		a.mode = modeDrawer
		return a, nil

	case key.Matches(msg, a.keys.Settings):
		a.settings.Load(a.ctrl.Sessions().Profile())
		a.mode = modeSettings
		return a, nil

	case key.Matches(msg, a.keys.ScrollUp):
		a.viewport.HalfViewUp()
		return a, nil

	case key.Matches(msg, a.keys.ScrollDown):
		a.viewport.HalfViewDown()
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleDrawerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Back), key.Matches(msg, a.keys.Conversations):
		a.mode = modeChat
		a.refreshTranscript(true)
		return a, nil

	case key.Matches(msg, a.keys.Submit):
		if conv := a.drawer.Selected(); conv != nil {
			a.ctrl.Sessions().SetActive(conv.ID)
		}
		a.mode = modeChat
		a.errText = ""
		a.refreshTranscript(true)
		return a, nil

	case key.Matches(msg, a.keys.Delete):
		if conv := a.drawer.Selected(); conv != nil {
			a.ctrl.Sessions().DeleteConversation(conv.ID)
			a.drawer.Reload(a.ctrl.Sessions().Conversations(), a.ctrl.Sessions().ActiveID())
		}
		return a, nil
	}

	switch msg.String() {
	case "up", "k":
		a.drawer.MoveUp()
	case "down", "j":
		a.drawer.MoveDown()
	case "n":
		a.ctrl.Sessions().CreateConversation()
		a.mode = modeChat
		a.refreshTranscript(true)
	}
	return a, nil
}

func (a *App) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Back), key.Matches(msg, a.keys.Settings):
		a.ctrl.Sessions().UpdateProfile(a.settings.Profile())
		a.mode = modeChat
		a.refreshTranscript(true)
		return a, nil

	case key.Matches(msg, a.keys.Submit):
		a.settings.Activate()
		if a.settings.ClearRequested() {
			a.ctrl.Sessions().ClearHistory()
		}
		return a, nil
	}

	switch msg.String() {
	case "up":
		a.settings.MoveUp()
		return a, nil
	case "down", "tab":
		a.settings.MoveDown()
		return a, nil
	case "left":
		if !a.settings.EditingText() {
			a.settings.CycleLeft()
			return a, nil
		}
	case "right":
		if !a.settings.EditingText() {
			a.settings.CycleRight()
			return a, nil
		}
	}

	if a.settings.EditingText() {
		a.settings.UpdateInputs(msg)
	}
	return a, nil
}

// =============================================================================
// LAYOUT
// =============================================================================

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height

	contentWidth := width - 2
	viewHeight := height - a.chromeHeight()
	if viewHeight < 3 {
		viewHeight = 3
	}

	if !a.ready {
		a.viewport = viewport.New(contentWidth, viewHeight)
		md := NewPlainRenderer(contentWidth - 4)
		if a.uiConfig.Markdown {
			md = NewMarkdownRenderer(a.uiConfig.Theme, contentWidth-4)
		}
		a.transcript = NewTranscript(a.theme, md, contentWidth)
		a.ready = true
	} else {
		a.viewport.Width = contentWidth
		a.viewport.Height = viewHeight
		a.transcript.SetWidth(contentWidth)
	}

	a.input.SetWidth(contentWidth - 2)
	a.drawer.SetSize(width, height)
	a.settings.SetSize(width, height)
	a.refreshTranscript(true)
}

// chromeHeight is the vertical space taken by everything around the
// transcript viewport: header, input box, status bar.
func (a *App) chromeHeight() int {
	h := 2 + 3 + 1
	if a.errText != "" {
		h++
	}
	return h
}

func (a *App) refreshTranscript(follow bool) {
	if !a.ready {
		return
	}
	conv := a.ctrl.Sessions().Active()
	name := a.ctrl.Sessions().Profile().DisplayAssistantName()
	a.viewport.SetContent(a.transcript.Render(conv, name, a.typing, a.spinner.View()))
	if follow {
		a.viewport.GotoBottom()
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Starting..."
	}

	switch a.mode {
	case modeDrawer:
		return a.overlay(a.drawer.View())
	case modeSettings:
		return a.overlay(a.settings.View())
	}

	var b strings.Builder
	b.WriteString(a.renderHeader())
	b.WriteString("\n")
	b.WriteString(a.viewport.View())
	b.WriteString("\n")
	if a.errText != "" {
		b.WriteString(a.theme.ErrorText.Render(a.errText))
		b.WriteString("\n")
	}
	b.WriteString(a.theme.InputContainer.Width(a.width - 2).Render(a.input.View()))
	b.WriteString("\n")
	b.WriteString(a.renderStatusBar())
	return b.String()
}

func (a *App) renderHeader() string {
	name := a.ctrl.Sessions().Profile().DisplayAssistantName()
	title := a.theme.HeaderTitle.Render(name)
	hint := ""
	if conv := a.ctrl.Sessions().Active(); conv != nil {
		hint = a.theme.HeaderHint.Render(conv.GetTitle())
	}
	return a.theme.Header.Width(a.width).Render(title + "  " + hint)
}

func (a *App) renderStatusBar() string {
	shortcuts := []struct{ k, d string }{
		{"Enter", "send"},
		{"C-n", "new"},
		{"C-o", "chats"},
		{"C-s", "settings"},
		{"C-c", "quit"},
	}
	parts := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		parts = append(parts, a.theme.ShortcutKey.Render(s.k)+" "+a.theme.ShortcutDesc.Render(s.d))
	}
	return a.theme.StatusBar.Width(a.width).Render(strings.Join(parts, "  "))
}

func (a *App) overlay(box string) string {
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, box)
}
