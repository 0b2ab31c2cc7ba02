// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server implements the aria relay HTTP server.
//
// Endpoints:
//   - POST /api/chat - stream an assistant reply as relay frames
//   - GET  /health   - health check
//   - GET  /stats    - usage statistics
//
// The chat endpoint accepts the full conversation plus an optional system
// prompt, forwards it to the upstream model API, and re-frames the upstream
// stream as data: {"content":...} events ending with data: [DONE]. A failure
// before the first delta is a 500 JSON error; a failure mid-stream is a
// data: {"error":...} frame with no sentinel.
package server
