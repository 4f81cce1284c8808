// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"fmt"
	"strings"
)

// Kind is the fixed category of an asset. It selects the validator
// rules, the kind reader, and the shard files the asset lives in. An
// asset never changes kind after import.
type Kind string

const (
	KindImage          Kind = "image"
	KindAudio          Kind = "audio"
	KindVideo          Kind = "video"
	KindStructuredData Kind = "structured_data"
	KindFont           Kind = "font"
	KindOther          Kind = "other"
)

// Kinds lists every kind in a stable order. Flushes, CLI listings, and
// startup loads iterate in this order.
var Kinds = []Kind{
	KindImage,
	KindAudio,
	KindVideo,
	KindStructuredData,
	KindFont,
	KindOther,
}

// Valid reports whether k is one of the six known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindImage, KindAudio, KindVideo, KindStructuredData, KindFont, KindOther:
		return true
	default:
		return false
	}
}

// String returns the kind's wire name.
func (k Kind) String() string { return string(k) }

// ParseKind accepts a kind's wire name, case-insensitively. The short
// alias "data" is accepted for structured data since that is what
// people type at a shell.
func ParseKind(value string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "data" || normalized == "structured-data" {
		return KindStructuredData, nil
	}
	kind := Kind(normalized)
	if !kind.Valid() {
		return "", fmt.Errorf("unknown asset kind %q: must be one of %s", value, kindNames())
	}
	return kind, nil
}

func kindNames() string {
	names := make([]string, len(Kinds))
	for i, kind := range Kinds {
		names[i] = string(kind)
	}
	return strings.Join(names, ", ")
}

// Source records where an asset's bytes live.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)
