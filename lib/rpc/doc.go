// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

// Package rpc implements the request/response envelope codec for the
// voxd wire protocol: a JSON-RPC 2.0 shaped envelope carried in a
// "version"-tagged object, one object (or batch array) per message.
//
// The codec is transport-independent: it turns bytes into validated
// [Request] values and [Response] values back into bytes, and nothing
// else. Connection handling, framing, and dispatch live in the daemon
// package.
//
// Decoded requests own all of their data. Ids and parameters are
// copied out of the input buffer at decode time, so a Request stays
// valid after the caller reuses or discards the buffer it decoded
// from. This matters because the daemon decodes from a per-connection
// scanner whose buffer is overwritten by the next message.
package rpc
