// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assistant runs the streaming conversation flow.
//
// Controller ties the session state to the relay client: it appends the user
// message, opens the stream, grows the assistant reply delta by delta, and
// settles the turn on completion or failure. At most one send runs at a time;
// a second send while streaming is rejected so the transcript cannot
// interleave two replies.
package assistant
