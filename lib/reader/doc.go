// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package reader turns a stored asset's bytes into a typed payload plus
// kind-specific metadata.
//
// There is one [Reader] per asset kind, selected through a static
// [Table] keyed by [asset.Kind]:
//
//   - image: pixel dimensions and format via image.DecodeConfig
//     (png, jpeg, gif from the standard library; webp, bmp, tiff from
//     golang.org/x/image), SVG size from the root element
//   - audio: duration, sample rate, and channel count parsed from WAV,
//     MP3, Ogg (Vorbis, Opus, FLAC), FLAC, MPEG-4 audio, and ADTS AAC
//     headers
//   - video: duration and frame size from ISO BMFF, Matroska/WebM,
//     AVI, and Ogg Theora headers
//   - structured data: the parsed document and a validity flag
//   - font: family and style from the sfnt name table, including WOFF
//   - other: a MIME type guess and the byte size
//
// Parsing only touches container headers; no reader decodes pixels or
// samples. Readers hold nothing but their filesystem and are safe for
// concurrent use. A parser that panics on hostile input is recovered
// and reported as an error, never propagated to the caller.
package reader
