// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Asset is one imported file. The ID is the storage key for the
// asset's bytes; ContentHash is informational and never used to
// address storage, so byte-identical imports are stored twice.
type Asset struct {
	ID           string    `json:"id"`
	Kind         Kind      `json:"kind"`
	Name         string    `json:"name"`
	ContentHash  string    `json:"content_hash,omitempty"`
	Source       Source    `json:"source"`
	GroupID      string    `json:"group_id,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	Description  string    `json:"description,omitempty"`
	OriginalPath string    `json:"original_path,omitempty"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Clone returns a deep copy. The tag slice is the only reference field.
func (a Asset) Clone() Asset {
	if a.Tags != nil {
		a.Tags = append([]string(nil), a.Tags...)
	}
	return a
}

// Group is a folder-like node scoped to one kind. An empty
// ParentGroupID marks a root group.
type Group struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Kind          Kind      `json:"kind"`
	ParentGroupID string    `json:"parent_group_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Clone returns a copy of g. Group has no reference fields; the
// method exists so call sites read the same for both record types.
func (g Group) Clone() Group { return g }

// NewID returns a fresh 32-character lowercase hex identifier. The
// random UUID is rendered without hyphens so the first four characters
// can be used directly as shard directory names.
func NewID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// NormalizeTags trims whitespace, drops empty entries, removes
// duplicates, and sorts the result. Tags are a set; the stored order
// is canonical so shard bytes are stable across identical updates.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	var normalized []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, exists := seen[tag]; exists {
			continue
		}
		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
	}
	sort.Strings(normalized)
	return normalized
}

// BaseName strips the directory and final extension from a path, the
// way imported files get their initial display name.
func BaseName(path string) string {
	slash := strings.LastIndexAny(path, `/\`)
	name := path[slash+1:]
	if dot := strings.LastIndexByte(name, '.'); dot > 0 {
		name = name[:dot]
	}
	return name
}
