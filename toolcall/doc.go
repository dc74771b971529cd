// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

// Package toolcall maps framed tool calls onto the daemon's method
// registry. Framed-protocol clients name operations by tool
// ("voxel_add_voxels") with nested argument objects; the registry
// names them by method ("vox.add_voxel") with flat parameters. A
// static table pairs each tool with its method and, where the shapes
// differ, an argument translator.
//
// [Translate] turns a request frame's payload into a dispatchable
// [rpc.Request] whose id is the frame's message id, so responses
// correlate without any per-connection id state. [ResultPayload] and
// [ErrorPayload] build the response frame payloads for the return
// trip.
//
// Key exports:
//
//   - [Translate] -- framed payload to registry request
//   - [ResultPayload], [ErrorPayload] -- response frame payloads
//
// This package depends on lib/rpc for the request and error types it
// produces and on document for color formatting.
package toolcall
