// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

// Package daemon is the voxd connection service: it listens on a unix
// socket (and optionally TCP), classifies each connection's protocol
// from its first bytes, and dispatches decoded requests to registered
// handlers over a shared worker pool.
//
// Two protocols share every listener. Line-protocol clients speak
// newline-delimited request envelopes; frame-protocol clients speak
// 16-byte binary headers with tool-call payloads, translated into the
// same envelope form by package toolcall. A connection is classified
// once, on its first message, and keeps that protocol for its
// lifetime.
//
// Responses on a connection are written in request order regardless of
// which worker finishes first: each decoded message reserves a
// response slot before entering the pool, and a per-connection writer
// drains slots in reservation order. Notifications reserve a slot like
// any request and fill it with nothing, which keeps ordering exact
// without writing bytes. When a connection dies, its queued work is
// skipped and in-flight handlers finish with their results discarded.
//
// Handlers that touch the document acquire a [document.Guard] token
// for the duration of the call. Contention and ownership loss surface
// as distinct error codes rather than blocking.
//
// Key exports:
//
//   - [Server] -- listeners, worker pool, and the method registry
//   - [New], [Server.Serve] -- construction and the accept loop
//   - [Server.Handle], [HandlerFunc], [Call] -- method registration
//   - [StatsSnapshot], [ConnectionInfo], [PeerCreds] -- status surface
//
// This package depends on lib/rpc (envelopes), lib/wire (framing and
// classification), toolcall (frame-payload translation), document (the
// guarded engine), lib/config, and lib/clock.
package daemon
