// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides voxd's standard CBOR encoding configuration.
//
// voxd uses two serialization formats with a clear boundary:
//
//   - JSON for the wire: both client protocols carry JSON payloads,
//     and CLI output is JSON.
//   - CBOR for on-disk document snapshots, where deterministic bytes
//     matter because the snapshot digest is computed over them.
//
// This package provides the shared CBOR modes so every package encodes
// identically without duplicating configuration. The encoder uses Core
// Deterministic Encoding (RFC 8949 §4.2): sorted map keys, smallest
// integer encoding, no indefinite-length items.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations:
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
package codec
