// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package validate

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/bureau-foundation/atelier/lib/asset"
)

// DefaultExtensions is the built-in allow-list per kind. Extensions
// are lowercase without the leading dot.
var DefaultExtensions = map[asset.Kind][]string{
	asset.KindImage:          {"png", "jpg", "jpeg", "jfif", "gif", "webp", "bmp", "tif", "tiff", "svg"},
	asset.KindAudio:          {"mp3", "wav", "ogg", "oga", "opus", "flac", "m4a", "aac"},
	asset.KindVideo:          {"mp4", "m4v", "mov", "webm", "mkv", "avi", "ogv"},
	asset.KindStructuredData: {"json", "jsonc", "yaml", "yml"},
	asset.KindFont:           {"ttf", "otf", "ttc", "woff", "woff2"},
	asset.KindOther:          {"txt", "md", "csv", "tsv", "pdf", "zip", "xml", "html", "css", "js", "glsl", "bin", "dat"},
}

// equivalentFormats maps an extension to the detected formats it
// accepts. Extensions absent from this table accept only a detected
// format with the same name. The ISO BMFF and Ogg families share
// container signatures across their extensions; brand detection is
// not reliable enough to reject ".m4a" holding an "isom" brand.
var equivalentFormats = map[string][]string{
	"jpg":  {"jpeg"},
	"jpeg": {"jpeg"},
	"jfif": {"jpeg"},
	"tif":  {"tiff"},
	"tiff": {"tiff"},

	"mp4": {"mp4", "mov", "m4a"},
	"m4v": {"mp4", "mov", "m4a"},
	"mov": {"mp4", "mov", "m4a"},
	"m4a": {"mp4", "mov", "m4a"},

	"ogg":  {"ogg"},
	"oga":  {"ogg"},
	"opus": {"ogg"},
	"ogv":  {"ogg"},

	"webm": {"webm", "matroska"},
	"mkv":  {"matroska", "webm"},

	"otf": {"otf", "ttf"},
}

// Extension returns the lowercase extension of path without the dot.
func Extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// formatMatchesExtension reports whether a detected format is
// acceptable content for extension.
func formatMatchesExtension(extension, format string) bool {
	accepted, exists := equivalentFormats[extension]
	if !exists {
		return extension == format
	}
	for _, candidate := range accepted {
		if candidate == format {
			return true
		}
	}
	return false
}

// extensionSet builds a lookup set from an allow-list, normalizing
// case and stripping leading dots.
func extensionSet(extensions []string) map[string]struct{} {
	set := make(map[string]struct{}, len(extensions))
	for _, extension := range extensions {
		extension = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(extension), "."))
		if extension != "" {
			set[extension] = struct{}{}
		}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
