// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package relay implements the client side of the aria relay protocol.
//
// The relay server fronts the upstream model API and re-frames its output as
// a simple server-sent-event stream: each frame is a single line of the form
//
//	data: {"content":"..."}
//
// terminated by a blank line, with a final "data: [DONE]" sentinel on
// success. A mid-stream failure is reported as a {"error":"..."} frame
// instead of the sentinel. FrameReader parses that wire format from any
// io.Reader; Client speaks HTTP to the relay and feeds the frames to a
// callback.
package relay
