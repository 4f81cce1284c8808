// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package validate

import (
	"strings"

	"github.com/bureau-foundation/atelier/lib/asset"
)

const op = "validate"

// Validator holds the per-kind extension allow-lists. The zero value
// is not usable; construct with New or Default.
type Validator struct {
	extensions map[asset.Kind]map[string]struct{}
}

// New returns a Validator using DefaultExtensions, with any kind named
// in overrides replaced by the given list. An override with an empty
// list is ignored.
func New(overrides map[asset.Kind][]string) *Validator {
	validator := &Validator{extensions: make(map[asset.Kind]map[string]struct{}, len(asset.Kinds))}
	for _, kind := range asset.Kinds {
		list := DefaultExtensions[kind]
		if override := overrides[kind]; len(override) > 0 {
			list = override
		}
		validator.extensions[kind] = extensionSet(list)
	}
	return validator
}

var defaultValidator = New(nil)

// Default returns the Validator with the built-in allow-lists.
func Default() *Validator { return defaultValidator }

// Validate checks raw against kind using the default allow-lists.
func Validate(kind asset.Kind, path string, raw []byte) error {
	return defaultValidator.Validate(kind, path, raw)
}

// AllowedExtensions returns the sorted allow-list for kind.
func (v *Validator) AllowedExtensions(kind asset.Kind) []string {
	return sortedKeys(v.extensions[kind])
}

// Allows reports whether path's extension is accepted for kind.
func (v *Validator) Allows(kind asset.Kind, path string) bool {
	_, allowed := v.extensions[kind][Extension(path)]
	return allowed
}

// Validate returns nil when raw is acceptable content for kind at
// path, or an *asset.Error with CodeValidationFailed naming the
// mismatch.
func (v *Validator) Validate(kind asset.Kind, path string, raw []byte) error {
	if !kind.Valid() {
		return asset.Errorf(asset.CodeValidationFailed, op, path, "unknown asset kind %q", kind)
	}
	if len(raw) == 0 {
		return asset.Errorf(asset.CodeValidationFailed, op, path, "file is empty")
	}

	extension := Extension(path)
	if !v.Allows(kind, path) {
		shown := extension
		if shown == "" {
			shown = "(none)"
		}
		return asset.Errorf(asset.CodeValidationFailed, op, path,
			"extension %q is not allowed for %s assets (allowed: %s)",
			shown, kind, strings.Join(v.AllowedExtensions(kind), ", "))
	}

	switch kind {
	case asset.KindImage, asset.KindAudio, asset.KindVideo, asset.KindFont:
		return checkSignature(kind, path, extension, raw)
	case asset.KindStructuredData:
		if _, err := ParseStructured(extension, raw); err != nil {
			return &asset.Error{
				Code:    asset.CodeValidationFailed,
				Op:      op,
				Subject: path,
				Message: "invalid structured data in ." + extension + " file",
				Err:     err,
			}
		}
		return nil
	default:
		return nil
	}
}

func checkSignature(kind asset.Kind, path, extension string, raw []byte) error {
	detected, ok := Detect(raw)
	if !ok {
		return nil
	}
	if formatMatchesExtension(extension, detected) {
		return nil
	}
	return asset.Errorf(asset.CodeValidationFailed, op, path,
		"format mismatch: declared %s extension %q but content is %s",
		kind, "."+extension, detected)
}
