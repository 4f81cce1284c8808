// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for Atelier
// asset projects.
//
// Configuration is loaded from a single file specified by either the
// ATELIER_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no file discovery: without either, a
// command works from [Default] plus its own flags.
//
// The file may carry development and production sections that
// override base values when [Config].Environment matches. Production
// defaults compress shards with zstd and log JSON.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${ATELIER_ROOT}, and ${VAR:-default} patterns are
// expanded. No other environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Paths, Storage, Extensions, Log
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
package config
