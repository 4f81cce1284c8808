// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metastore holds the per-kind asset metadata maps and
// persists each as one whole-shard file.
//
// Each kind's map is loaded lazily on first access from
// <directory>/<kind>.cbor. A missing shard is created empty; a shard
// that fails to decode is copied to <kind>.cbor.bak and reset (see
// [shard.File.Load]), so a damaged project still opens.
//
// Mutations (Rename, UpdateTags, UpdateDescription, SetGroup, Insert,
// Remove) change the in-memory map under a mutex and return without
// touching disk. Each one reports the kind through Hooks.MarkDirty
// and, where a subscriber could observe it, publishes an event through
// Hooks.Emit. The owner decides when to call [Store.Flush], which
// snapshots the map and overwrites the shard.
//
// The mutex is never held across I/O. Flushes of the same kind are
// serialized by a separate per-kind write lock, and the snapshot is
// taken after acquiring it, so a later flush always writes a state at
// least as new as an earlier one.
//
// Callers only ever receive copies of records.
package metastore
