// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the in-memory conversation state and keeps it in sync
// with the storage layer.
//
// Manager is the single owner of the conversation list, the active
// conversation id, and the user profile. Every mutation persists the affected
// record best-effort: a save failure is logged and the in-memory state stays
// authoritative, so a full disk never blocks the chat.
package session
