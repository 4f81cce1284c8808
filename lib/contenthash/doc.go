// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package contenthash computes the content hashes recorded on imported
// assets.
//
// Hashes are unkeyed BLAKE3-256 digests rendered as 64 lowercase hex
// characters. They are informational: the asset engine stores bytes
// under generated ids, not under hashes, so two imports of the same
// file produce two assets with equal ContentHash values. Callers that
// want deduplication compare hashes themselves before importing.
//
// The API surface is four functions:
//
//   - [HashFile] -- streams a file through BLAKE3 with constant memory
//   - [HashBytes] -- hashes an in-memory buffer
//   - [FormatDigest] / [ParseDigest] -- hex conversion with validation
//
// This package has no dependencies on other engine packages.
package contenthash
