// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/binary"
	"testing"
)

func frameHeader(id, typ, length, timestamp uint32) []byte {
	header := make([]byte, FrameHeaderSize)
	binary.BigEndian.PutUint32(header[0:4], id)
	binary.BigEndian.PutUint32(header[4:8], typ)
	binary.BigEndian.PutUint32(header[8:12], length)
	binary.BigEndian.PutUint32(header[12:16], timestamp)
	return header
}

func TestClassify(t *testing.T) {
	const maxPayload = 1 << 20

	tests := []struct {
		name   string
		prefix []byte
		want   Protocol
	}{
		{
			name:   "request object",
			prefix: []byte(`{"version":"2.0","method":"ping","id":1}`),
			want:   ProtocolLine,
		},
		{
			name:   "batch array",
			prefix: []byte(`[{"version":"2.0","method":"ping","id":1}]`),
			want:   ProtocolLine,
		},
		{
			name:   "object with leading field",
			prefix: []byte(`{"id"`),
			want:   ProtocolLine,
		},
		{
			name:   "frame request header",
			prefix: frameHeader(7, 1, 32, 0),
			want:   ProtocolFrame,
		},
		{
			name:   "frame error header",
			prefix: frameHeader(7, 3, 0, 1756100000),
			want:   ProtocolFrame,
		},
		{
			name:   "frame header with trailing payload",
			prefix: append(frameHeader(1, 1, 4, 0), 'a', 'b', 'c', 'd'),
			want:   ProtocolFrame,
		},
		{
			name:   "too short to classify",
			prefix: []byte("{"),
			want:   ProtocolUnknown,
		},
		{
			name:   "empty prefix",
			prefix: nil,
			want:   ProtocolUnknown,
		},
		{
			name:   "text that is neither",
			prefix: []byte("GET / HTTP/1.1\r\nHost: localhost\r\n"),
			want:   ProtocolUnknown,
		},
		{
			name:   "frame type zero",
			prefix: frameHeader(7, 0, 32, 0),
			want:   ProtocolUnknown,
		},
		{
			name:   "frame type out of range",
			prefix: frameHeader(7, 4, 32, 0),
			want:   ProtocolUnknown,
		},
		{
			name:   "frame payload over limit",
			prefix: frameHeader(7, 1, maxPayload+1, 0),
			want:   ProtocolUnknown,
		},
		{
			name:   "binary but header truncated",
			prefix: frameHeader(7, 1, 32, 0)[:12],
			want:   ProtocolUnknown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.prefix, maxPayload)
			if got != tt.want {
				t.Fatalf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProtocolString(t *testing.T) {
	if got := ProtocolLine.String(); got != "line" {
		t.Errorf("ProtocolLine.String() = %q, want %q", got, "line")
	}
	if got := ProtocolFrame.String(); got != "frame" {
		t.Errorf("ProtocolFrame.String() = %q, want %q", got, "frame")
	}
	if got := ProtocolUnknown.String(); got != "unknown" {
		t.Errorf("ProtocolUnknown.String() = %q, want %q", got, "unknown")
	}
}
