// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

// Voxd-call is a one-shot JSON-RPC client for the voxd unix socket. It
// sends a single request line and prints the response to stdout,
// enabling shell scripts and editor integrations to drive the daemon
// without a persistent client.
package main
