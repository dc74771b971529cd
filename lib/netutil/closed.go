// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil classifies connection errors for socket serving code.
package netutil

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// IsExpectedCloseError reports whether err is a normal connection
// termination: EOF, closed connection, broken pipe, or connection
// reset. Editor clients rarely shut a socket down cleanly; killing the
// client mid-session surfaces as ECONNRESET or EPIPE on the daemon's
// in-flight read or write rather than EOF. All four are routine
// teardown and should not be logged as failures.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}
