// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui implements the aria terminal interface.
//
// The interface is a Bubble Tea program with three views: the chat transcript
// (viewport + input), the conversation drawer, and the settings form. The
// assistant controller runs sends on a background goroutine and reports
// progress through an event channel that the program turns into messages.
package ui
