// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// bmffBox is one ISO base media file format box.
type bmffBox struct {
	Type    string
	Payload []byte
}

// bmffBoxes splits a sequence of sibling boxes.
func bmffBoxes(data []byte) ([]bmffBox, error) {
	var boxes []bmffBox
	for len(data) > 0 {
		if len(data) < 8 {
			return boxes, fmt.Errorf("truncated box header (%d bytes)", len(data))
		}
		size := uint64(binary.BigEndian.Uint32(data[:4]))
		boxType := string(data[4:8])
		header := uint64(8)
		switch size {
		case 0:
			size = uint64(len(data))
		case 1:
			if len(data) < 16 {
				return boxes, fmt.Errorf("truncated large box header for %q", boxType)
			}
			size = binary.BigEndian.Uint64(data[8:16])
			header = 16
		}
		if size < header {
			return boxes, fmt.Errorf("box %q declares size %d smaller than its header", boxType, size)
		}
		if size > uint64(len(data)) {
			// The trailing mdat of a file copied mid-write is often
			// short; keep what is there.
			size = uint64(len(data))
		}
		boxes = append(boxes, bmffBox{Type: boxType, Payload: data[header:size]})
		data = data[size:]
	}
	return boxes, nil
}

// bmffFind descends through nested boxes following path and returns
// the payload of the first match.
func bmffFind(data []byte, path ...string) ([]byte, bool) {
	for _, boxType := range path {
		boxes, _ := bmffBoxes(data)
		found := false
		for _, candidate := range boxes {
			if candidate.Type == boxType {
				data = candidate.Payload
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return data, true
}

// bmffChildren returns every direct child of data with the given type.
func bmffChildren(data []byte, boxType string) [][]byte {
	boxes, _ := bmffBoxes(data)
	var matches [][]byte
	for _, candidate := range boxes {
		if candidate.Type == boxType {
			matches = append(matches, candidate.Payload)
		}
	}
	return matches
}

// bmffTrack is what the readers need from one trak box.
type bmffTrack struct {
	Handler            string
	Timescale          uint32
	Duration           uint64
	Width              int
	Height             int
	SampleEntry        string
	SampleEntryPayload []byte
}

// bmffMovie is the parsed moov box.
type bmffMovie struct {
	Brand    string
	Duration time.Duration
	Tracks   []bmffTrack
}

// parseBMFF reads the ftyp brand and the moov box.
func parseBMFF(data []byte) (*bmffMovie, error) {
	ftyp, ok := bmffFind(data, "ftyp")
	if !ok || len(ftyp) < 4 {
		return nil, errors.New("missing ftyp box")
	}
	movie := &bmffMovie{Brand: string(ftyp[:4])}

	moov, ok := bmffFind(data, "moov")
	if !ok {
		return nil, errors.New("missing moov box")
	}
	mvhd, ok := bmffFind(moov, "mvhd")
	if !ok {
		return nil, errors.New("missing mvhd box")
	}
	timescale, duration, err := parseTimedHeader(mvhd)
	if err != nil {
		return nil, fmt.Errorf("mvhd: %w", err)
	}
	movie.Duration = durationOf(duration, uint64(timescale))

	for _, trak := range bmffChildren(moov, "trak") {
		track, err := parseTrack(trak)
		if err != nil {
			return nil, err
		}
		movie.Tracks = append(movie.Tracks, track)
	}
	return movie, nil
}

// parseTimedHeader reads timescale and duration from an mvhd or mdhd
// payload. Both share the same version-dependent prefix.
func parseTimedHeader(payload []byte) (timescale uint32, duration uint64, err error) {
	if len(payload) < 1 {
		return 0, 0, errors.New("empty header")
	}
	switch payload[0] {
	case 0:
		if len(payload) < 20 {
			return 0, 0, errors.New("truncated version 0 header")
		}
		timescale = binary.BigEndian.Uint32(payload[12:16])
		raw := binary.BigEndian.Uint32(payload[16:20])
		if raw != 0xFFFFFFFF {
			duration = uint64(raw)
		}
	case 1:
		if len(payload) < 32 {
			return 0, 0, errors.New("truncated version 1 header")
		}
		timescale = binary.BigEndian.Uint32(payload[20:24])
		duration = binary.BigEndian.Uint64(payload[24:32])
		if duration == 0xFFFFFFFFFFFFFFFF {
			duration = 0
		}
	default:
		return 0, 0, fmt.Errorf("unknown header version %d", payload[0])
	}
	return timescale, duration, nil
}

func parseTrack(trak []byte) (bmffTrack, error) {
	var track bmffTrack

	if tkhd, ok := bmffFind(trak, "tkhd"); ok && len(tkhd) > 0 {
		offset := 76
		if tkhd[0] == 1 {
			offset = 88
		}
		if len(tkhd) >= offset+8 {
			track.Width = int(binary.BigEndian.Uint32(tkhd[offset:]) >> 16)
			track.Height = int(binary.BigEndian.Uint32(tkhd[offset+4:]) >> 16)
		}
	}

	if hdlr, ok := bmffFind(trak, "mdia", "hdlr"); ok && len(hdlr) >= 12 {
		track.Handler = string(hdlr[8:12])
	}
	if mdhd, ok := bmffFind(trak, "mdia", "mdhd"); ok {
		timescale, duration, err := parseTimedHeader(mdhd)
		if err != nil {
			return track, fmt.Errorf("mdhd: %w", err)
		}
		track.Timescale = timescale
		track.Duration = duration
	}

	if stsd, ok := bmffFind(trak, "mdia", "minf", "stbl", "stsd"); ok && len(stsd) > 8 {
		entries, _ := bmffBoxes(stsd[8:])
		if len(entries) > 0 {
			track.SampleEntry = entries[0].Type
			track.SampleEntryPayload = entries[0].Payload
		}
	}
	return track, nil
}

// firstTrack returns the first track with the given handler type
// ("vide" or "soun").
func (m *bmffMovie) firstTrack(handler string) (bmffTrack, bool) {
	for _, track := range m.Tracks {
		if track.Handler == handler {
			return track, true
		}
	}
	return bmffTrack{}, false
}

// trackDuration prefers the movie header duration and falls back to
// the track's media header.
func (m *bmffMovie) trackDuration(track bmffTrack) time.Duration {
	if m.Duration > 0 {
		return m.Duration
	}
	return durationOf(track.Duration, uint64(track.Timescale))
}

// bmffCodec maps a sample entry four-character code to a codec name.
func bmffCodec(sampleEntry string) string {
	switch sampleEntry {
	case "avc1", "avc3":
		return "h264"
	case "hvc1", "hev1":
		return "hevc"
	case "av01":
		return "av1"
	case "vp08":
		return "vp8"
	case "vp09":
		return "vp9"
	case "mp4v":
		return "mpeg4"
	case "mp4a":
		return "aac"
	case "alac":
		return "alac"
	case "Opus":
		return "opus"
	case "fLaC":
		return "flac"
	case "ac-3":
		return "ac3"
	case "ec-3":
		return "eac3"
	default:
		return sampleEntry
	}
}
