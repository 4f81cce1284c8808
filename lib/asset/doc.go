// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package asset defines the shared domain types of the Atelier asset
// engine: asset kinds, asset and group records, change events, and the
// error taxonomy every other engine package reports through.
//
// Records in this package are plain values. Stores hand out copies
// (see [Asset.Clone] and [Group.Clone]); no package outside the owning
// store ever holds a pointer into a live map.
//
// On-disk types use json struct tags. The shard encoder (lib/codec)
// is CBOR, and fxamacker/cbor reads json tags as fallback, so the same
// records also render directly as CLI --json output.
package asset
