// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"testing"
)

// SocketDir creates a temporary directory suitable for Unix domain
// sockets. Unix domain sockets have a 108-byte path limit (sun_path in
// sockaddr_un), so the directory is created with a short name directly
// in /tmp rather than under the test tmpdir.
//
// The directory is removed when the test completes.
func SocketDir(t *testing.T) string {
	t.Helper()
	directory, err := os.MkdirTemp("/tmp", "voxd-test-*")
	if err != nil {
		t.Fatalf("creating socket directory: %v", err)
	}
	t.Cleanup(func() {
		_ = os.RemoveAll(directory)
	})
	return directory
}
