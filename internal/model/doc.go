// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations, messages, and
// the user profile.
//
// A Conversation owns its Messages exclusively; messages are append-only
// except for the in-place growth of the last message's content while an
// assistant reply is streaming. The UserProfile is a per-installation
// singleton that controls the assistant's name and personality.
package model
