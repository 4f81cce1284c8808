// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package shard reads and writes the per-kind shard files that hold
// the engine's metadata and group maps.
//
// A shard is one file holding an entire map (record id → record) for
// one kind. It is always rewritten whole; there is no append or
// partial update. The file is a CBOR envelope:
//
//	{v: 1, type: "metadata", kind: "image", compression: "zstd",
//	 raw_size: 5120, body: <compressed CBOR map>}
//
// The envelope names its own compression, so a project can change the
// configured compression at any time: existing shards still decode and
// are rewritten in the new format on their next flush. Small or
// incompressible bodies are stored uncompressed regardless of the
// configured algorithm.
//
// [File.Load] implements corruption recovery. If a shard exists but
// does not decode (bad envelope, bad compression frame, bad body, or
// mismatched type/kind), its bytes are copied to "<shard>.bak", a
// fresh empty shard is written in its place, and Load returns an
// empty map with [Recovery] details rather than an error. Refusing to
// open a project is worse than losing metadata whose original bytes
// are preserved for manual recovery.
package shard
