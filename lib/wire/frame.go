// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// FrameHeaderSize is the fixed length of the binary frame header: four
// big-endian uint32 fields (message id, type, payload length,
// timestamp).
const FrameHeaderSize = 16

// FrameType distinguishes the three frame kinds on the wire.
type FrameType uint32

const (
	// FrameRequest carries a tool call from client to daemon.
	FrameRequest FrameType = 1
	// FrameResponse carries a successful result back to the client.
	FrameResponse FrameType = 2
	// FrameError carries a failure back to the client.
	FrameError FrameType = 3
)

// String returns the frame type name for logs.
func (t FrameType) String() string {
	switch t {
	case FrameRequest:
		return "request"
	case FrameResponse:
		return "response"
	case FrameError:
		return "error"
	default:
		return fmt.Sprintf("type(%d)", uint32(t))
	}
}

// Frame is one decoded binary-protocol message. ID correlates a
// response with its request and is chosen by the client. Timestamp is
// seconds since the Unix epoch; the daemon stamps outgoing frames and
// ignores the field on incoming ones.
type Frame struct {
	ID        uint32
	Type      FrameType
	Timestamp uint32
	Payload   []byte
}

// Frame codec errors. ReadFrame wraps ErrFrameTooLarge and
// ErrFrameType with the offending values; io errors from the
// underlying reader pass through unwrapped so callers can test for
// io.EOF.
var (
	ErrFrameTooLarge = errors.New("frame payload exceeds limit")
	ErrFrameType     = errors.New("unknown frame type")
)

// ReadFrame reads one frame from r. A clean EOF before any header byte
// returns io.EOF; EOF inside a header or payload returns
// io.ErrUnexpectedEOF. The payload is freshly allocated and owned by
// the caller.
func ReadFrame(r io.Reader, maxPayload uint32) (*Frame, error) {
	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading frame header: %w", err)
	}
	f := &Frame{
		ID:        binary.BigEndian.Uint32(header[0:4]),
		Type:      FrameType(binary.BigEndian.Uint32(header[4:8])),
		Timestamp: binary.BigEndian.Uint32(header[12:16]),
	}
	length := binary.BigEndian.Uint32(header[8:12])
	if f.Type < FrameRequest || f.Type > FrameError {
		return nil, fmt.Errorf("%w: %d", ErrFrameType, uint32(f.Type))
	}
	if length > maxPayload {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, length, maxPayload)
	}
	if length > 0 {
		f.Payload = make([]byte, length)
		if _, err := io.ReadFull(r, f.Payload); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("reading frame payload: %w", err)
		}
	}
	return f, nil
}

// WriteFrame encodes f and writes it to w in one call, so writes from
// a single goroutine are never interleaved.
func WriteFrame(w io.Writer, f *Frame) error {
	if uint64(len(f.Payload)) > uint64(^uint32(0)) {
		return fmt.Errorf("%w: %d", ErrFrameTooLarge, len(f.Payload))
	}
	buf := make([]byte, FrameHeaderSize+len(f.Payload))
	binary.BigEndian.PutUint32(buf[0:4], f.ID)
	binary.BigEndian.PutUint32(buf[4:8], uint32(f.Type))
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(f.Payload)))
	binary.BigEndian.PutUint32(buf[12:16], f.Timestamp)
	copy(buf[FrameHeaderSize:], f.Payload)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}
