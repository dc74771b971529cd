// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire handles the byte-level view of client connections:
// deciding which protocol a fresh connection speaks and framing its
// messages.
//
// Two protocols share the daemon socket. The line protocol carries one
// JSON envelope (or batch array) per newline-terminated line. The
// frame protocol carries tool calls behind a fixed 16-byte binary
// header. [Classify] inspects peeked bytes without consuming them and
// assigns a connection one of the two; a connection that matches
// neither is closed without a response.
package wire
