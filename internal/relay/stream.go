// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package relay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
)

// =============================================================================
// FRAME READER
// =============================================================================

// doneSentinel terminates a successful stream.
var doneSentinel = []byte("[DONE]")

// Frame is one decoded event from the relay stream.
type Frame struct {
	Content string // text delta, possibly empty
	Err     string // relay-reported stream error, "" when none
	Done    bool   // true for the [DONE] sentinel
}

// frameEnvelope is the JSON payload carried by a data line.
type frameEnvelope struct {
	Content *string `json:"content"`
	Error   *string `json:"error"`
}

// FrameReader decodes relay frames from a raw stream. It buffers internally,
// so a data line split across transport chunks is reassembled before parsing.
type FrameReader struct {
	reader *bufio.Reader
}

// NewFrameReader wraps r for frame-by-frame reading.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{reader: bufio.NewReader(r)}
}

// Next returns the next well-formed frame. Lines that are not data lines, and
// data lines whose payload does not decode, are skipped rather than treated
// as fatal. Returns io.EOF when the stream ends, including when it ends
// without a [DONE] sentinel.
func (fr *FrameReader) Next() (Frame, error) {
	for {
		line, err := fr.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(bytes.TrimSpace(line)) > 0 {
				// Final line without a trailing newline.
				if f, ok := parseLine(line); ok {
					return f, nil
				}
			}
			return Frame{}, err
		}

		if f, ok := parseLine(line); ok {
			return f, nil
		}
	}
}

// parseLine decodes a single stream line into a frame. The second return is
// false for blank lines, comments, and malformed payloads.
func parseLine(line []byte) (Frame, bool) {
	line = bytes.TrimRight(line, "\r\n")
	if !bytes.HasPrefix(line, []byte("data:")) {
		return Frame{}, false
	}

	payload := bytes.TrimSpace(line[len("data:"):])
	if len(payload) == 0 {
		return Frame{}, false
	}
	if bytes.Equal(payload, doneSentinel) {
		return Frame{Done: true}, true
	}

	var env frameEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Frame{}, false
	}

	f := Frame{}
	if env.Content != nil {
		f.Content = *env.Content
	}
	if env.Error != nil {
		f.Err = *env.Error
	}
	if f.Content == "" && f.Err == "" {
		// JSON that carries neither field is noise.
		return Frame{}, false
	}
	return f, true
}
