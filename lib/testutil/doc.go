// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for voxd packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// that individual tests do not need direct time.After calls.
//
// [SocketDir] creates a temporary directory in /tmp suitable for Unix
// domain sockets, which have a 108-byte path limit (sun_path in
// sockaddr_un) that deeply nested test tmpdirs can exceed.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
