// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the upstream model API client used by the relay
// server.
//
// The upstream speaks the OpenAI-compatible chat completions protocol:
// streamed responses arrive as server-sent events carrying
// chat.completion.chunk payloads, terminated by a [DONE] sentinel. The relay
// consumes those chunks and re-frames them for aria clients.
package cloud
