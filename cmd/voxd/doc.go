// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

// Voxd is the voxel project daemon. It listens on a local unix socket
// (and optionally TCP), classifies each connection as line-delimited
// JSON-RPC or length-prefixed binary tool frames, and dispatches
// requests onto a worker pool serialized by the document guard.
package main
