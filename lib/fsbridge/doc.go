// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fsbridge is the asset engine's boundary to the filesystem.
//
// Every disk effect the engine performs goes through the [FS]
// interface: reading and writing bytes, existence checks, directory
// creation, copy/move/delete, and content hashing. Each operation is
// fallible and returns a structured [*Error] carrying a stable code
// and a human-readable message, so callers can distinguish "the file
// is gone" (often benign) from a real I/O failure without parsing
// strings.
//
// [Local] is the production implementation over the host filesystem.
// Writes are atomic: data goes to a temporary file in the destination
// directory and is renamed into place, so a reader never observes a
// partially written shard. Tests wrap an FS to count or fail specific
// operations.
package fsbridge
