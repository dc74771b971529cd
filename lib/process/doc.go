// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for voxd
// binaries: fatal error reporting to stderr for failures that happen
// before the structured logger is initialized, or after main has
// nothing left to do but exit.
package process
