// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reader

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf16"

	"github.com/golang/freetype/truetype"
	"github.com/klauspost/compress/zlib"
	"golang.org/x/image/font/sfnt"

	"github.com/bureau-foundation/atelier/lib/asset"
	"github.com/bureau-foundation/atelier/lib/fsbridge"
	"github.com/bureau-foundation/atelier/lib/validate"
)

// maxNameTableSize bounds the inflated size of a WOFF name table.
const maxNameTableSize = 1 << 20

type fontReader struct {
	fs fsbridge.FS
}

func (r *fontReader) Kind() asset.Kind { return asset.KindFont }

func (r *fontReader) Read(ctx context.Context, path string) (*Result, error) {
	return read(ctx, r.fs, asset.KindFont, path, parseFont)
}

func parseFont(data []byte) (Metadata, error) {
	format, ok := validate.Sniff(data)
	if !ok {
		return nil, errors.New("unrecognized font format")
	}
	switch format {
	case "ttf", "otf":
		return parseSFNT(data, format)
	case "ttc":
		collection, err := sfnt.ParseCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parsing font collection: %w", err)
		}
		face, err := collection.Font(0)
		if err != nil {
			return nil, fmt.Errorf("reading first font of collection: %w", err)
		}
		return sfntMetadata(face, "ttc"), nil
	case "woff":
		return parseWOFF(data)
	case "woff2":
		// Brotli-compressed tables; names are not extracted.
		return FontMetadata{Format: "woff2"}, nil
	default:
		return nil, fmt.Errorf("content is %s, not a font", format)
	}
}

// parseSFNT reads names with x/image's sfnt parser. Fonts it rejects
// (some legacy TrueType tables) get a second chance through freetype.
func parseSFNT(data []byte, format string) (Metadata, error) {
	face, err := sfnt.Parse(data)
	if err == nil {
		return sfntMetadata(face, format), nil
	}
	legacy, legacyErr := truetype.Parse(data)
	if legacyErr != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	return FontMetadata{
		Family: legacy.Name(truetype.NameIDFontFamily),
		Style:  legacy.Name(truetype.NameIDFontSubfamily),
		Format: format,
	}, nil
}

func sfntMetadata(face *sfnt.Font, format string) FontMetadata {
	var buffer sfnt.Buffer
	name := func(ids ...sfnt.NameID) string {
		for _, id := range ids {
			if value, err := face.Name(&buffer, id); err == nil && value != "" {
				return value
			}
		}
		return ""
	}
	return FontMetadata{
		Family: name(sfnt.NameIDTypographicFamily, sfnt.NameIDFamily),
		Style:  name(sfnt.NameIDTypographicSubfamily, sfnt.NameIDSubfamily),
		Format: format,
		Glyphs: face.NumGlyphs(),
	}
}

// parseWOFF locates the name table in a WOFF 1.0 directory, inflates
// it if compressed, and decodes family and style from it.
func parseWOFF(data []byte) (Metadata, error) {
	const headerSize, entrySize = 44, 20
	if len(data) < headerSize {
		return nil, errors.New("short WOFF header")
	}
	tableCount := int(binary.BigEndian.Uint16(data[12:14]))
	if len(data) < headerSize+tableCount*entrySize {
		return nil, errors.New("truncated WOFF table directory")
	}

	metadata := FontMetadata{Format: "woff"}
	for index := range tableCount {
		entry := data[headerSize+index*entrySize:]
		if string(entry[:4]) != "name" {
			continue
		}
		offset := int(binary.BigEndian.Uint32(entry[4:8]))
		compressedLength := int(binary.BigEndian.Uint32(entry[8:12]))
		originalLength := int(binary.BigEndian.Uint32(entry[12:16]))
		if offset < 0 || compressedLength < 0 || offset+compressedLength > len(data) {
			return nil, errors.New("WOFF name table lies outside the file")
		}
		table := data[offset : offset+compressedLength]
		if compressedLength < originalLength {
			inflated, err := inflateTable(table, originalLength)
			if err != nil {
				return nil, fmt.Errorf("inflating WOFF name table: %w", err)
			}
			table = inflated
		}
		metadata.Family, metadata.Style = nameTableNames(table)
		break
	}
	return metadata, nil
}

func inflateTable(compressed []byte, originalLength int) ([]byte, error) {
	if originalLength > maxNameTableSize {
		return nil, fmt.Errorf("table claims %d bytes, limit is %d", originalLength, maxNameTableSize)
	}
	decompressor, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer decompressor.Close()
	table := make([]byte, originalLength)
	if _, err := io.ReadFull(decompressor, table); err != nil {
		return nil, err
	}
	return table, nil
}

// nameTableNames decodes family and subfamily from a raw sfnt name
// table, preferring the typographic names (IDs 16 and 17) and Windows
// Unicode records over Macintosh Roman ones.
func nameTableNames(table []byte) (family, style string) {
	if len(table) < 6 {
		return "", ""
	}
	count := int(binary.BigEndian.Uint16(table[2:4]))
	storage := int(binary.BigEndian.Uint16(table[4:6]))

	best := map[uint16]string{}
	bestRank := map[uint16]int{}
	for index := range count {
		record := 6 + index*12
		if record+12 > len(table) {
			break
		}
		platform := binary.BigEndian.Uint16(table[record:])
		encoding := binary.BigEndian.Uint16(table[record+2:])
		nameID := binary.BigEndian.Uint16(table[record+6:])
		length := int(binary.BigEndian.Uint16(table[record+8:]))
		offset := storage + int(binary.BigEndian.Uint16(table[record+10:]))
		if nameID != 1 && nameID != 2 && nameID != 16 && nameID != 17 {
			continue
		}
		if offset+length > len(table) {
			continue
		}
		raw := table[offset : offset+length]

		var value string
		var rank int
		switch {
		case platform == 3 && (encoding == 1 || encoding == 10), platform == 0:
			value, rank = decodeUTF16BE(raw), 2
		case platform == 1 && encoding == 0:
			value, rank = string(raw), 1
		default:
			continue
		}
		if value != "" && rank > bestRank[nameID] {
			best[nameID], bestRank[nameID] = value, rank
		}
	}

	family = best[16]
	if family == "" {
		family = best[1]
	}
	style = best[17]
	if style == "" {
		style = best[2]
	}
	return family, style
}

func decodeUTF16BE(raw []byte) string {
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = binary.BigEndian.Uint16(raw[2*i:])
	}
	return string(utf16.Decode(units))
}
