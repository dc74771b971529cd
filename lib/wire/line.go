// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// ErrLineTooLong reports a line that exceeded the reader's buffer
// limit. The stream position is unrecoverable after this, so callers
// must close the connection.
var ErrLineTooLong = errors.New("line exceeds limit")

// LineReader yields newline-delimited messages from a stream. The
// bytes returned by Next alias the reader's internal buffer and are
// only valid until the following Next call; anything retained past
// that point must be copied first.
type LineReader struct {
	scanner *bufio.Scanner
}

// NewLineReader wraps r with a scanner sized for the protocol: a small
// initial buffer that grows on demand up to max bytes per line. The
// scanner's token limit is the larger of max and the initial capacity,
// so the initial buffer must never exceed max.
func NewLineReader(r io.Reader, max int) *LineReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(64*1024, max)), max)
	return &LineReader{scanner: scanner}
}

// Next returns the next line without its trailing newline. It returns
// io.EOF on a clean end of stream and ErrLineTooLong when a line
// overflows the buffer limit. Empty lines are skipped.
func (l *LineReader) Next() ([]byte, error) {
	for l.scanner.Scan() {
		line := l.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		return line, nil
	}
	if err := l.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, ErrLineTooLong
		}
		return nil, fmt.Errorf("reading line: %w", err)
	}
	return nil, io.EOF
}
