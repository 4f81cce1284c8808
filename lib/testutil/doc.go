// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for the asset engine.
//
// [RequireReceive] and [RequireNoReceive] encapsulate the timeout
// safety valve pattern (select with time.After fallback) so individual
// tests never call time.After directly when waiting on event channels.
//
// The fixture functions ([PNG], [JPEG], [GIF], [WAV], [MP4Video],
// [M4A], [Font]) generate small but structurally valid media files in
// memory. Tests build their inputs from these rather than checking
// binary blobs into the tree, so every fixture documents the exact
// dimensions, durations, and sample rates the readers must report.
// [WriteFile] places a fixture on disk under a test's temp directory.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package depends on no other engine packages.
package testutil
