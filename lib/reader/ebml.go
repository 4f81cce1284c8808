// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strings"
	"time"
)

// Matroska element IDs, with their length markers.
const (
	ebmlHeaderID      = 0x1A45DFA3
	ebmlDocTypeID     = 0x4282
	segmentID         = 0x18538067
	infoID            = 0x1549A966
	timecodeScaleID   = 0x2AD7B1
	segmentDurationID = 0x4489
	tracksID          = 0x1654AE6B
	trackEntryID      = 0xAE
	trackTypeID       = 0x83
	codecID           = 0x86
	videoID           = 0xE0
	pixelWidthID      = 0xB0
	pixelHeightID     = 0xBA
	clusterID         = 0x1F43B675

	trackTypeVideo = 1

	defaultTimecodeScale = 1_000_000
)

type ebmlElement struct {
	ID      uint64
	Payload []byte
}

// ebmlVint decodes a variable-length integer. With keepMarker the
// length marker bit stays in the value, which is how element IDs are
// written.
func ebmlVint(data []byte, keepMarker bool) (value uint64, length int, unknown bool, err error) {
	if len(data) == 0 {
		return 0, 0, false, errors.New("truncated variable-length integer")
	}
	length = bits.LeadingZeros8(data[0]) + 1
	if length > 8 {
		return 0, 0, false, errors.New("invalid variable-length integer marker")
	}
	if len(data) < length {
		return 0, 0, false, errors.New("truncated variable-length integer")
	}
	value = uint64(data[0])
	if !keepMarker {
		value &= 0xFF >> length
	}
	for _, next := range data[1:length] {
		value = value<<8 | uint64(next)
	}
	unknown = !keepMarker && value == (uint64(1)<<(7*length))-1
	return value, length, unknown, nil
}

// ebmlElements splits sibling elements. An element with unknown size,
// or a size past the end of data, extends to the end of data.
func ebmlElements(data []byte) ([]ebmlElement, error) {
	var elements []ebmlElement
	for len(data) > 0 {
		id, idLength, _, err := ebmlVint(data, true)
		if err != nil {
			return elements, fmt.Errorf("element id: %w", err)
		}
		if idLength > 4 {
			return elements, fmt.Errorf("element id 0x%X is longer than 4 bytes", id)
		}
		size, sizeLength, unknown, err := ebmlVint(data[idLength:], false)
		if err != nil {
			return elements, fmt.Errorf("element 0x%X size: %w", id, err)
		}
		data = data[idLength+sizeLength:]
		if unknown || size > uint64(len(data)) {
			size = uint64(len(data))
		}
		elements = append(elements, ebmlElement{ID: id, Payload: data[:size]})
		data = data[size:]
	}
	return elements, nil
}

func ebmlUint(payload []byte) uint64 {
	var value uint64
	for _, b := range payload {
		value = value<<8 | uint64(b)
	}
	return value
}

func ebmlFloat(payload []byte) (float64, error) {
	switch len(payload) {
	case 0:
		return 0, nil
	case 4:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(payload))), nil
	case 8:
		return math.Float64frombits(binary.BigEndian.Uint64(payload)), nil
	default:
		return 0, fmt.Errorf("float element of %d bytes", len(payload))
	}
}

// matroskaInfo is what the video reader needs from a Matroska or WebM
// file.
type matroskaInfo struct {
	DocType  string
	Duration time.Duration
	Width    int
	Height   int
	Codec    string
}

func parseMatroska(data []byte) (*matroskaInfo, error) {
	top, err := ebmlElements(data)
	if err != nil && len(top) == 0 {
		return nil, err
	}
	if len(top) == 0 || top[0].ID != ebmlHeaderID {
		return nil, errors.New("missing EBML header")
	}

	info := &matroskaInfo{DocType: "matroska"}
	header, _ := ebmlElements(top[0].Payload)
	for _, element := range header {
		if element.ID == ebmlDocTypeID {
			info.DocType = strings.TrimRight(string(element.Payload), "\x00")
		}
	}

	var segment []byte
	for _, element := range top[1:] {
		if element.ID == segmentID {
			segment = element.Payload
			break
		}
	}
	if segment == nil {
		return nil, errors.New("missing Segment element")
	}

	children, _ := ebmlElements(segment)
	foundInfo, foundTracks := false, false
	for _, child := range children {
		switch child.ID {
		case infoID:
			if err := info.parseSegmentInfo(child.Payload); err != nil {
				return nil, err
			}
			foundInfo = true
		case tracksID:
			info.parseTracks(child.Payload)
			foundTracks = true
		case clusterID:
			// Headers precede media data in every muxer we accept.
			if foundInfo || foundTracks {
				return info, nil
			}
		}
		if foundInfo && foundTracks {
			break
		}
	}
	if !foundInfo && !foundTracks {
		return nil, errors.New("segment has neither Info nor Tracks")
	}
	return info, nil
}

func (m *matroskaInfo) parseSegmentInfo(payload []byte) error {
	elements, _ := ebmlElements(payload)
	scale := uint64(defaultTimecodeScale)
	var duration float64
	for _, element := range elements {
		switch element.ID {
		case timecodeScaleID:
			if value := ebmlUint(element.Payload); value > 0 {
				scale = value
			}
		case segmentDurationID:
			value, err := ebmlFloat(element.Payload)
			if err != nil {
				return fmt.Errorf("segment duration: %w", err)
			}
			duration = value
		}
	}
	if duration > 0 && !math.IsInf(duration, 0) && !math.IsNaN(duration) {
		m.Duration = time.Duration(duration * float64(scale))
	}
	return nil
}

func (m *matroskaInfo) parseTracks(payload []byte) {
	entries, _ := ebmlElements(payload)
	for _, entry := range entries {
		if entry.ID != trackEntryID {
			continue
		}
		fields, _ := ebmlElements(entry.Payload)
		var trackType uint64
		var codec string
		var width, height int
		for _, field := range fields {
			switch field.ID {
			case trackTypeID:
				trackType = ebmlUint(field.Payload)
			case codecID:
				codec = strings.TrimRight(string(field.Payload), "\x00")
			case videoID:
				videoFields, _ := ebmlElements(field.Payload)
				for _, videoField := range videoFields {
					switch videoField.ID {
					case pixelWidthID:
						width = int(ebmlUint(videoField.Payload))
					case pixelHeightID:
						height = int(ebmlUint(videoField.Payload))
					}
				}
			}
		}
		if trackType == trackTypeVideo {
			m.Width, m.Height = width, height
			m.Codec = matroskaCodec(codec)
			return
		}
	}
}

// matroskaCodec maps a Matroska CodecID ("V_VP9", "V_MPEG4/ISO/AVC")
// to the names used for ISO BMFF sample entries.
func matroskaCodec(codec string) string {
	switch codec {
	case "V_MPEG4/ISO/AVC":
		return "h264"
	case "V_MPEGH/ISO/HEVC":
		return "hevc"
	case "":
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(codec, "V_"))
}
