// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the voxd
// daemon.
//
// Configuration is loaded from a single file specified by either the
// VOXD_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. A daemon started without a config file
// runs on [Default] values.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${XDG_RUNTIME_DIR}, and ${VAR:-default} patterns are
// expanded. No other environment variables override config values;
// the file is the single source of truth.
//
// Key exports:
//
//   - [Config] -- master struct with Socket, TCP, Workers, Limits,
//     Guard, Process, Snapshot, Logging sections
//   - [Default] -- returns a Config with local-development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Duration] -- YAML string durations ("5m", "30s")
//
// This package depends on no other voxd packages.
package config
