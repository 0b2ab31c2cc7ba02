// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists session state for the aria client.
//
// Three logical records live as JSON files under the data directory
// (default ~/.aria): the conversation list, the active-conversation id, and
// the user profile. Every record is rewritten in full on each save via an
// atomic temp-file+fsync+rename, so a crash leaves either the old or the new
// complete record, never a torn one.
//
// Missing files are not errors: loads return empty state (or defaults for the
// profile) so a first run needs no setup step.
package storage
