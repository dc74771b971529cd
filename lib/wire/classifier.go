// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import "encoding/binary"

// Protocol identifies the framing a connection speaks. A connection is
// classified once, from its first bytes, and keeps that protocol for
// its whole lifetime.
type Protocol int

const (
	// ProtocolUnknown means the prefix matched neither protocol. The
	// connection is closed without writing a response.
	ProtocolUnknown Protocol = iota

	// ProtocolLine is newline-delimited JSON envelopes.
	ProtocolLine

	// ProtocolFrame is the binary header framing used by tool-call
	// clients.
	ProtocolFrame
)

// String returns the protocol name for logs.
func (p Protocol) String() string {
	switch p {
	case ProtocolLine:
		return "line"
	case ProtocolFrame:
		return "frame"
	default:
		return "unknown"
	}
}

// classifyMin is the fewest peeked bytes Classify needs to make a
// decision. Shorter prefixes only classify when the connection has
// already hit EOF.
const classifyMin = 4

// Classify inspects a peeked prefix of a new connection and decides
// its protocol. The prefix is not consumed; callers peek, classify,
// then hand the intact stream to the matching reader.
//
// A prefix opening with '{' or '[' is the line protocol: both a single
// envelope and a batch array start that way, and neither byte can open
// a sane frame header (they would put the message id above 1.7
// billion). A prefix carrying a full 16-byte header whose type and
// payload length fields are plausible is the frame protocol. Anything
// else is unknown and the caller closes the connection.
func Classify(prefix []byte, maxPayload uint32) Protocol {
	if len(prefix) < classifyMin {
		return ProtocolUnknown
	}
	switch prefix[0] {
	case '{', '[':
		return ProtocolLine
	}
	if len(prefix) < FrameHeaderSize {
		return ProtocolUnknown
	}
	typ := binary.BigEndian.Uint32(prefix[4:8])
	length := binary.BigEndian.Uint32(prefix[8:12])
	if typ < uint32(FrameRequest) || typ > uint32(FrameError) {
		return ProtocolUnknown
	}
	if length > maxPayload {
		return ProtocolUnknown
	}
	return ProtocolFrame
}
