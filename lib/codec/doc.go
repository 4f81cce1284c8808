// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the engine's standard CBOR configuration.
//
// The asset engine persists metadata and group shards as CBOR. Every
// package that touches a shard encodes through this package so that
// the same logical map always produces identical bytes: the encoder
// uses Core Deterministic Encoding (RFC 8949 §4.2) with sorted map
// keys, smallest integer encodings, and no indefinite-length items.
// Identical bytes for identical maps let tests assert "exactly one
// write reflecting the final state" by comparing shard contents.
//
// Timestamps encode as RFC 3339 text with nanoseconds. The CBOR
// default (integer Unix seconds) would truncate createdAt/updatedAt
// and break the shard round-trip guarantee.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Record types carry json struct tags; fxamacker/cbor falls back to
// them when no cbor tag is present, so one tag set serves both the
// on-disk format and CLI --json output.
package codec
