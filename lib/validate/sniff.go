// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package validate

import (
	"bytes"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLength is how much of a file Sniff inspects. Every binary
// signature fits in the first 16 bytes; SVG detection scans further
// to skip XML prologs and comments.
const sniffLength = 1024

// Sniff identifies a binary format from the leading bytes of data and
// returns its canonical name ("png", "jpeg", "webp", "mp3", "mp4",
// "matroska", "woff", ...). ok is false when no signature matches.
func Sniff(data []byte) (format string, ok bool) {
	if len(data) > sniffLength {
		data = data[:sniffLength]
	}

	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "png", true
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "jpeg", true
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return "gif", true
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return "tiff", true
	case bytes.HasPrefix(data, []byte("BM")) && len(data) >= 14:
		return "bmp", true
	}

	if len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) {
		switch string(data[8:12]) {
		case "WEBP":
			return "webp", true
		case "WAVE":
			return "wav", true
		case "AVI ":
			return "avi", true
		}
	}

	if len(data) >= 12 && string(data[4:8]) == "ftyp" {
		return isobmffFormat(string(data[8:12])), true
	}

	switch {
	case bytes.HasPrefix(data, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		if bytes.Contains(data, []byte("webm")) {
			return "webm", true
		}
		return "matroska", true
	case bytes.HasPrefix(data, []byte("OggS")):
		return "ogg", true
	case bytes.HasPrefix(data, []byte("fLaC")):
		return "flac", true
	case bytes.HasPrefix(data, []byte("ID3")):
		return "mp3", true
	}

	if len(data) >= 2 && data[0] == 0xFF {
		// ADTS sync is 12 set bits with layer 00; MPEG audio frames
		// share the 11-bit sync and carry a nonzero layer.
		if data[1]&0xF6 == 0xF0 {
			return "aac", true
		}
		if data[1]&0xE0 == 0xE0 && (data[1]>>1)&0x03 != 0 {
			return "mp3", true
		}
	}

	switch {
	case bytes.HasPrefix(data, []byte{0x00, 0x01, 0x00, 0x00}), bytes.HasPrefix(data, []byte("true")):
		return "ttf", true
	case bytes.HasPrefix(data, []byte("OTTO")):
		return "otf", true
	case bytes.HasPrefix(data, []byte("ttcf")):
		return "ttc", true
	case bytes.HasPrefix(data, []byte("wOFF")):
		return "woff", true
	case bytes.HasPrefix(data, []byte("wOF2")):
		return "woff2", true
	}

	if looksLikeSVG(data) {
		return "svg", true
	}
	return "", false
}

// fallbackFormats maps MIME types detected by mimetype to canonical
// format names for content the signature table does not cover. Only
// these count as a detection; anything else (text/plain,
// application/octet-stream) is treated as unrecognized.
var fallbackFormats = []struct {
	mime   string
	format string
}{
	{"application/pdf", "pdf"},
	{"application/zip", "zip"},
	{"application/gzip", "gzip"},
	{"application/x-7z-compressed", "7z"},
	{"image/x-icon", "ico"},
	{"image/vnd.adobe.photoshop", "psd"},
	{"image/heic", "heic"},
	{"image/jxl", "jxl"},
	{"audio/aiff", "aiff"},
	{"audio/midi", "midi"},
	{"audio/amr", "amr"},
	{"video/x-flv", "flv"},
	{"video/mpeg", "mpeg"},
	{"video/x-ms-asf", "asf"},
	{"application/vnd.ms-fontobject", "eot"},
}

// Detect identifies data with Sniff, then falls back to mimetype
// detection for the formats in fallbackFormats.
func Detect(data []byte) (format string, ok bool) {
	if format, ok := Sniff(data); ok {
		return format, true
	}
	detected := mimetype.Detect(data)
	for _, candidate := range fallbackFormats {
		if detected.Is(candidate.mime) {
			return candidate.format, true
		}
	}
	return "", false
}

// isobmffFormat maps an ISO base media file "ftyp" major brand to a
// canonical format.
func isobmffFormat(brand string) string {
	switch brand {
	case "qt  ":
		return "mov"
	case "M4A ", "M4B ", "M4P ":
		return "m4a"
	default:
		return "mp4"
	}
}

// looksLikeSVG reports whether data is XML text whose first element
// is <svg>. Leading whitespace, a byte-order mark, the XML
// declaration, comments, and a DOCTYPE are skipped.
func looksLikeSVG(data []byte) bool {
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	for {
		data = bytes.TrimLeft(data, " \t\r\n")
		switch {
		case bytes.HasPrefix(data, []byte("<?")):
			end := bytes.Index(data, []byte("?>"))
			if end < 0 {
				return false
			}
			data = data[end+2:]
		case bytes.HasPrefix(data, []byte("<!--")):
			end := bytes.Index(data, []byte("-->"))
			if end < 0 {
				return false
			}
			data = data[end+3:]
		case bytes.HasPrefix(data, []byte("<!")):
			end := bytes.IndexByte(data, '>')
			if end < 0 {
				return false
			}
			data = data[end+1:]
		default:
			return bytes.HasPrefix(data, []byte("<svg"))
		}
	}
}
