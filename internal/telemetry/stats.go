// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"sync/atomic"
	"time"
)

// =============================================================================
// IN-MEMORY STATS
// =============================================================================

// Stats tracks relay counters since process start. All methods are safe for
// concurrent use.
type Stats struct {
	startTime time.Time

	requests        atomic.Int64
	badRequests     atomic.Int64
	streamsOK       atomic.Int64
	streamErrors    atomic.Int64
	deltasForwarded atomic.Int64
	bytesForwarded  atomic.Int64
}

// NewStats creates a stats tracker anchored at now.
func NewStats() *Stats {
	return &Stats{startTime: time.Now()}
}

// RecordRequest counts an incoming chat request.
func (s *Stats) RecordRequest() { s.requests.Add(1) }

// RecordBadRequest counts a rejected (4xx) chat request.
func (s *Stats) RecordBadRequest() { s.badRequests.Add(1) }

// RecordStreamOK counts a stream that reached [DONE].
func (s *Stats) RecordStreamOK() { s.streamsOK.Add(1) }

// RecordStreamError counts a stream that failed before or during delivery.
func (s *Stats) RecordStreamError() { s.streamErrors.Add(1) }

// RecordDelta counts one forwarded delta of the given byte size.
func (s *Stats) RecordDelta(size int) {
	s.deltasForwarded.Add(1)
	s.bytesForwarded.Add(int64(size))
}

// Snapshot is a point-in-time view of the counters, shaped for JSON.
type Snapshot struct {
	UptimeSecs      int64 `json:"uptimeSecs"`
	Requests        int64 `json:"requests"`
	BadRequests     int64 `json:"badRequests"`
	StreamsOK       int64 `json:"streamsOk"`
	StreamErrors    int64 `json:"streamErrors"`
	DeltasForwarded int64 `json:"deltasForwarded"`
	BytesForwarded  int64 `json:"bytesForwarded"`
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		UptimeSecs:      int64(time.Since(s.startTime).Seconds()),
		Requests:        s.requests.Load(),
		BadRequests:     s.badRequests.Load(),
		StreamsOK:       s.streamsOK.Load(),
		StreamErrors:    s.streamErrors.Load(),
		DeltasForwarded: s.deltasForwarded.Load(),
		BytesForwarded:  s.bytesForwarded.Load(),
	}
}
