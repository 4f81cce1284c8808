// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reader

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bureau-foundation/atelier/lib/asset"
	"github.com/bureau-foundation/atelier/lib/fsbridge"
	"github.com/bureau-foundation/atelier/lib/validate"
)

type videoReader struct {
	fs fsbridge.FS
}

func (r *videoReader) Kind() asset.Kind { return asset.KindVideo }

func (r *videoReader) Read(ctx context.Context, path string) (*Result, error) {
	return read(ctx, r.fs, asset.KindVideo, path, parseVideo)
}

func parseVideo(data []byte) (Metadata, error) {
	format, ok := validate.Sniff(data)
	if !ok {
		return nil, errors.New("unrecognized video container")
	}
	switch format {
	case "mp4", "mov", "m4a":
		return parseBMFFVideo(data, format)
	case "webm", "matroska":
		info, err := parseMatroska(data)
		if err != nil {
			return nil, err
		}
		return VideoMetadata{
			Duration: info.Duration,
			Width:    info.Width,
			Height:   info.Height,
			Format:   info.DocType,
			Codec:    info.Codec,
		}, nil
	case "avi":
		return parseAVI(data)
	case "ogg":
		return parseOggVideo(data)
	default:
		return nil, fmt.Errorf("content is %s, not video", format)
	}
}

func parseBMFFVideo(data []byte, format string) (Metadata, error) {
	movie, err := parseBMFF(data)
	if err != nil {
		return nil, err
	}
	track, ok := movie.firstTrack("vide")
	if !ok {
		return nil, errors.New("no video track")
	}
	if format == "m4a" {
		format = "mp4"
	}
	return VideoMetadata{
		Duration: movie.trackDuration(track),
		Width:    track.Width,
		Height:   track.Height,
		Format:   format,
		Codec:    bmffCodec(track.SampleEntry),
	}, nil
}

// parseAVI reads the main AVI header (avih) and the first video
// stream header's handler.
func parseAVI(data []byte) (Metadata, error) {
	chunks, err := riffBody(data, "AVI ")
	if err != nil {
		return nil, err
	}
	var headerList []byte
	for _, chunk := range chunks {
		if chunk.ID == "LIST" && chunk.Form == "hdrl" {
			headerList = chunk.Payload
			break
		}
	}
	if headerList == nil {
		return nil, errors.New("missing hdrl list")
	}

	inner, _ := riffChunks(headerList)
	metadata := VideoMetadata{Format: "avi"}
	foundHeader := false
	for _, chunk := range inner {
		switch {
		case chunk.ID == "avih":
			if len(chunk.Payload) < 40 {
				return nil, errors.New("short avih chunk")
			}
			microsecondsPerFrame := binary.LittleEndian.Uint32(chunk.Payload[0:4])
			totalFrames := binary.LittleEndian.Uint32(chunk.Payload[16:20])
			metadata.Duration = time.Duration(uint64(totalFrames)*uint64(microsecondsPerFrame)) * time.Microsecond
			metadata.Width = int(binary.LittleEndian.Uint32(chunk.Payload[32:36]))
			metadata.Height = int(binary.LittleEndian.Uint32(chunk.Payload[36:40]))
			foundHeader = true
		case chunk.ID == "LIST" && chunk.Form == "strl" && metadata.Codec == "":
			streamChunks, _ := riffChunks(chunk.Payload)
			for _, stream := range streamChunks {
				if stream.ID == "strh" && len(stream.Payload) >= 8 && string(stream.Payload[:4]) == "vids" {
					metadata.Codec = strings.ToLower(strings.TrimRight(string(stream.Payload[4:8]), " \x00"))
				}
			}
		}
	}
	if !foundHeader {
		return nil, errors.New("missing avih chunk")
	}
	return metadata, nil
}

// parseOggVideo reads a Theora identification header. Theora granule
// positions split into a keyframe number and an offset at KFGSHIFT
// bits.
func parseOggVideo(data []byte) (Metadata, error) {
	stream, err := firstOggStream(data)
	if err != nil {
		return nil, err
	}
	header := stream.Identification
	if len(header) < 42 || string(header[:7]) != "\x80theora" {
		return nil, errors.New("unrecognized Ogg codec (want Theora)")
	}
	pictureWidth := int(header[14])<<16 | int(header[15])<<8 | int(header[16])
	pictureHeight := int(header[17])<<16 | int(header[18])<<8 | int(header[19])
	frameRateNumerator := uint64(binary.BigEndian.Uint32(header[22:26]))
	frameRateDenominator := uint64(binary.BigEndian.Uint32(header[26:30]))
	granuleShift := uint(header[40]&0x03)<<3 | uint(header[41]>>5)

	metadata := VideoMetadata{Width: pictureWidth, Height: pictureHeight, Format: "ogg", Codec: "theora"}
	if stream.LastGranule > 0 && frameRateNumerator > 0 {
		keyframe := stream.LastGranule >> granuleShift
		offset := stream.LastGranule & (uint64(1)<<granuleShift - 1)
		frames := keyframe + offset
		metadata.Duration = durationOf(frames*frameRateDenominator, frameRateNumerator)
	}
	return metadata, nil
}
