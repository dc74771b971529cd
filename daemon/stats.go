// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import "sync/atomic"

// stats holds the daemon-wide counters reported by vox.get_status.
// All fields are atomics; readers get a coherent-enough view without
// a lock, which keeps the status path from ever blocking the serving
// paths that increment them.
type stats struct {
	connectionsTotal  atomic.Int64
	connectionsActive atomic.Int64
	requestsTotal     atomic.Int64
	requestsFailed    atomic.Int64
	notifications     atomic.Int64
	bytesRead         atomic.Int64
	bytesWritten      atomic.Int64
	lineMessages      atomic.Int64
	frameMessages     atomic.Int64
}

// StatsSnapshot is the counters block of a vox.get_status result.
type StatsSnapshot struct {
	ConnectionsTotal  int64 `json:"connections_total"`
	ConnectionsActive int64 `json:"connections_active"`
	RequestsTotal     int64 `json:"requests_total"`
	RequestsFailed    int64 `json:"requests_failed"`
	Notifications     int64 `json:"notifications"`
	BytesRead         int64 `json:"bytes_read"`
	BytesWritten      int64 `json:"bytes_written"`
	LineMessages      int64 `json:"line_messages"`
	FrameMessages     int64 `json:"frame_messages"`
}

func (s *stats) snapshot() StatsSnapshot {
	return StatsSnapshot{
		ConnectionsTotal:  s.connectionsTotal.Load(),
		ConnectionsActive: s.connectionsActive.Load(),
		RequestsTotal:     s.requestsTotal.Load(),
		RequestsFailed:    s.requestsFailed.Load(),
		Notifications:     s.notifications.Load(),
		BytesRead:         s.bytesRead.Load(),
		BytesWritten:      s.bytesWritten.Load(),
		LineMessages:      s.lineMessages.Load(),
		FrameMessages:     s.frameMessages.Load(),
	}
}
