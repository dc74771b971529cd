// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

// Package document holds the process-wide document the daemon edits:
// the voxel engine, the exclusive-access guard in front of it, and the
// snapshot format projects persist to.
//
// The daemon serves exactly one document. Handlers that touch it first
// acquire a [Guard] token; the guard admits one owner at a time and
// rejects contenders immediately rather than queuing them. An idle
// sweep driven by an injected clock reclaims tokens whose owner has
// stalled, so a wedged handler cannot hold the document forever.
//
// [Memory] is the in-memory [Engine] the daemon ships with: sparse
// voxel maps per layer, no spatial indexing. Projects persist as
// snapshot files: a small header (magic, compression tag, uncompressed
// size, keyed BLAKE3 digest) followed by a compressed canonical-CBOR
// body. Snapshots are byte-reproducible for unchanged documents, so
// digests double as change detection.
//
// Key exports:
//
//   - [Engine] -- the operations handlers invoke under the guard
//   - [Memory] -- the in-memory engine
//   - [Guard], [Token] -- exclusive access with idle eviction
//   - [Pos], [Color], [ParseColor] -- voxel coordinates and colors
//   - [CompressionTag], [ParseCompression] -- snapshot body codecs
//
// This package depends on lib/clock (sweep timing) and lib/codec
// (snapshot bodies).
package document
