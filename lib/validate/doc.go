// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package validate checks raw file bytes against a declared asset kind
// before the engine accepts an import.
//
// Validation runs three gates in order:
//
//  1. The file must be non-empty and its extension must be in the
//     kind's allow-list ([DefaultExtensions], overridable per project).
//  2. For image, audio, video, and font kinds, the leading bytes are
//     sniffed against magic-byte signatures ([Sniff]). A detected
//     format must be equivalent to the extension under the format
//     equivalence table: ".jpg", ".jpeg", and ".jfif" all accept
//     detected "jpeg"; a PNG signature inside "photo.jpg" is rejected.
//     Content with no recognizable signature passes this gate (SVG
//     aside, many valid files have none).
//  3. Structured data must parse: JSON and JSONC through tidwall/jsonc
//     and encoding/json, YAML through yaml.v3.
//
// The "other" kind stops after the extension gate; arbitrary files
// have no reliable signature.
//
// Validation is a pure function of its inputs. Failures are
// *asset.Error values with CodeValidationFailed whose messages name
// the path, the declared extension, and the detected format.
package validate
