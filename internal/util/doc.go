// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for the aria client and relay.
//
// It contains:
//   - Atomic file writes (temp file + fsync + rename) used by the storage layer
//   - Rune-safe string truncation used for conversation titles and previews
//
// Everything here is dependency-free and safe for concurrent use.
package util
