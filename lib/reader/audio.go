// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reader

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bureau-foundation/atelier/lib/asset"
	"github.com/bureau-foundation/atelier/lib/fsbridge"
	"github.com/bureau-foundation/atelier/lib/validate"
)

type audioReader struct {
	fs fsbridge.FS
}

func (r *audioReader) Kind() asset.Kind { return asset.KindAudio }

func (r *audioReader) Read(ctx context.Context, path string) (*Result, error) {
	return read(ctx, r.fs, asset.KindAudio, path, parseAudio)
}

func parseAudio(data []byte) (Metadata, error) {
	format, ok := validate.Sniff(data)
	if !ok {
		return nil, errors.New("unrecognized audio container")
	}
	switch format {
	case "wav":
		return parseWAV(data)
	case "mp3":
		return parseMP3(data)
	case "ogg":
		return parseOggAudio(data)
	case "flac":
		return parseFLAC(data)
	case "m4a", "mp4", "mov":
		return parseM4A(data)
	case "aac":
		return parseADTS(data)
	default:
		return nil, fmt.Errorf("content is %s, not audio", format)
	}
}

func parseWAV(data []byte) (Metadata, error) {
	chunks, err := riffBody(data, "WAVE")
	if err != nil {
		return nil, err
	}
	var format []byte
	dataSize := -1
	for _, chunk := range chunks {
		switch chunk.ID {
		case "fmt ":
			format = chunk.Payload
		case "data":
			dataSize = len(chunk.Payload)
		}
	}
	if len(format) < 16 {
		return nil, errors.New("missing or short fmt chunk")
	}
	if dataSize < 0 {
		return nil, errors.New("missing data chunk")
	}

	audioFormat := binary.LittleEndian.Uint16(format[0:2])
	channels := int(binary.LittleEndian.Uint16(format[2:4]))
	sampleRate := int(binary.LittleEndian.Uint32(format[4:8]))
	byteRate := binary.LittleEndian.Uint32(format[8:12])

	return AudioMetadata{
		Duration:   durationOf(uint64(dataSize), uint64(byteRate)),
		SampleRate: sampleRate,
		Channels:   channels,
		Format:     "wav",
		Codec:      waveCodec(audioFormat),
	}, nil
}

func waveCodec(formatTag uint16) string {
	switch formatTag {
	case 0x0001, 0xFFFE:
		return "pcm"
	case 0x0003:
		return "pcm_float"
	case 0x0006:
		return "alaw"
	case 0x0007:
		return "mulaw"
	case 0x0055:
		return "mp3"
	default:
		return fmt.Sprintf("0x%04x", formatTag)
	}
}

// MPEG audio header tables, indexed by [version][layer][bitrate index]
// in kbit/s. Version index 0 is MPEG-1, 1 is MPEG-2 and MPEG-2.5.
// Layer index 0 is Layer I.
var mpegBitrates = [2][3][16]int{
	{
		{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 0},
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 0},
		{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0},
	},
	{
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
	},
}

var mpegSampleRates = map[byte][3]int{
	3: {44100, 48000, 32000}, // MPEG-1
	2: {22050, 24000, 16000}, // MPEG-2
	0: {11025, 12000, 8000},  // MPEG-2.5
}

type mpegFrame struct {
	Version         byte // 3 = MPEG-1, 2 = MPEG-2, 0 = MPEG-2.5
	Layer           int  // 1, 2, or 3
	Bitrate         int  // bit/s
	SampleRate      int
	Channels        int
	SamplesPerFrame int
	Length          int
}

func parseMPEGHeader(header []byte) (mpegFrame, bool) {
	if len(header) < 4 || header[0] != 0xFF || header[1]&0xE0 != 0xE0 {
		return mpegFrame{}, false
	}
	version := (header[1] >> 3) & 0x03
	layerBits := (header[1] >> 1) & 0x03
	bitrateIndex := header[2] >> 4
	rateIndex := (header[2] >> 2) & 0x03
	padding := int((header[2] >> 1) & 0x01)
	if version == 1 || layerBits == 0 || bitrateIndex == 0 || bitrateIndex == 15 || rateIndex == 3 {
		return mpegFrame{}, false
	}

	frame := mpegFrame{Version: version, Layer: int(4 - layerBits)}
	versionIndex := 0
	if version != 3 {
		versionIndex = 1
	}
	frame.Bitrate = mpegBitrates[versionIndex][frame.Layer-1][bitrateIndex] * 1000
	frame.SampleRate = mpegSampleRates[version][rateIndex]
	frame.Channels = 2
	if header[3]>>6 == 3 {
		frame.Channels = 1
	}

	switch {
	case frame.Layer == 1:
		frame.SamplesPerFrame = 384
		frame.Length = (12*frame.Bitrate/frame.SampleRate + padding) * 4
	case frame.Layer == 3 && version != 3:
		frame.SamplesPerFrame = 576
		frame.Length = 72*frame.Bitrate/frame.SampleRate + padding
	default:
		frame.SamplesPerFrame = 1152
		frame.Length = 144*frame.Bitrate/frame.SampleRate + padding
	}
	return frame, true
}

// skipID3v2 returns the offset just past a leading ID3v2 tag.
func skipID3v2(data []byte) int {
	if len(data) < 10 || string(data[:3]) != "ID3" {
		return 0
	}
	size := int(data[6]&0x7F)<<21 | int(data[7]&0x7F)<<14 | int(data[8]&0x7F)<<7 | int(data[9]&0x7F)
	offset := 10 + size
	if data[5]&0x10 != 0 {
		offset += 10
	}
	if offset > len(data) {
		return len(data)
	}
	return offset
}

func parseMP3(data []byte) (Metadata, error) {
	offset := skipID3v2(data)
	var frame mpegFrame
	found := false
	for ; offset+4 <= len(data); offset++ {
		if candidate, ok := parseMPEGHeader(data[offset:]); ok {
			frame, found = candidate, true
			break
		}
	}
	if !found {
		return nil, errors.New("no MPEG audio frame header")
	}

	metadata := AudioMetadata{
		SampleRate: frame.SampleRate,
		Channels:   frame.Channels,
		Format:     "mp3",
		Codec:      fmt.Sprintf("mpeg_layer%d", frame.Layer),
	}
	if frame.Layer == 3 {
		metadata.Codec = "mp3"
	}

	if frames, ok := vbrFrameCount(data[offset:], frame); ok {
		metadata.Duration = durationOf(frames*uint64(frame.SamplesPerFrame), uint64(frame.SampleRate))
		return metadata, nil
	}

	audioBytes := len(data) - offset
	if audioBytes >= 128 && string(data[len(data)-128:len(data)-125]) == "TAG" {
		audioBytes -= 128
	}
	metadata.Duration = durationOf(uint64(audioBytes)*8, uint64(frame.Bitrate))
	return metadata, nil
}

// vbrFrameCount reads the total frame count from a Xing/Info or VBRI
// header in the first frame.
func vbrFrameCount(frameData []byte, frame mpegFrame) (uint64, bool) {
	sideInfo := 32
	switch {
	case frame.Version == 3 && frame.Channels == 1:
		sideInfo = 17
	case frame.Version != 3 && frame.Channels == 1:
		sideInfo = 9
	case frame.Version != 3:
		sideInfo = 17
	}
	xing := 4 + sideInfo
	if len(frameData) >= xing+12 {
		tag := string(frameData[xing : xing+4])
		if tag == "Xing" || tag == "Info" {
			flags := binary.BigEndian.Uint32(frameData[xing+4:])
			if flags&0x01 != 0 {
				return uint64(binary.BigEndian.Uint32(frameData[xing+8:])), true
			}
		}
	}
	const vbri = 4 + 32
	if len(frameData) >= vbri+18 && string(frameData[vbri:vbri+4]) == "VBRI" {
		return uint64(binary.BigEndian.Uint32(frameData[vbri+14:])), true
	}
	return 0, false
}

func parseOggAudio(data []byte) (Metadata, error) {
	stream, err := firstOggStream(data)
	if err != nil {
		return nil, err
	}
	identification := stream.Identification
	switch {
	case len(identification) >= 16 && string(identification[:7]) == "\x01vorbis":
		sampleRate := binary.LittleEndian.Uint32(identification[12:16])
		return AudioMetadata{
			Duration:   durationOf(stream.LastGranule, uint64(sampleRate)),
			SampleRate: int(sampleRate),
			Channels:   int(identification[11]),
			Format:     "ogg",
			Codec:      "vorbis",
		}, nil

	case len(identification) >= 19 && string(identification[:8]) == "OpusHead":
		// Opus granule positions always count 48 kHz samples.
		preSkip := uint64(binary.LittleEndian.Uint16(identification[10:12]))
		samples := uint64(0)
		if stream.LastGranule > preSkip {
			samples = stream.LastGranule - preSkip
		}
		return AudioMetadata{
			Duration:   durationOf(samples, 48000),
			SampleRate: 48000,
			Channels:   int(identification[9]),
			Format:     "ogg",
			Codec:      "opus",
		}, nil

	case len(identification) >= 51 && string(identification[:5]) == "\x7fFLAC" && string(identification[9:13]) == "fLaC":
		info, err := parseStreamInfo(identification[17:51])
		if err != nil {
			return nil, err
		}
		info.Format = "ogg"
		if info.Duration == 0 && info.SampleRate > 0 {
			info.Duration = durationOf(stream.LastGranule, uint64(info.SampleRate))
		}
		return info, nil
	}
	return nil, errors.New("unrecognized Ogg codec (want Vorbis, Opus, or FLAC)")
}

func parseFLAC(data []byte) (Metadata, error) {
	if len(data) < 4 || string(data[:4]) != "fLaC" {
		return nil, errors.New("missing fLaC marker")
	}
	offset := 4
	for offset+4 <= len(data) {
		header := data[offset]
		blockType := header & 0x7F
		length := int(data[offset+1])<<16 | int(data[offset+2])<<8 | int(data[offset+3])
		offset += 4
		if offset+length > len(data) {
			return nil, errors.New("truncated FLAC metadata block")
		}
		if blockType == 0 {
			info, err := parseStreamInfo(data[offset : offset+length])
			if err != nil {
				return nil, err
			}
			return info, nil
		}
		if header&0x80 != 0 {
			break
		}
		offset += length
	}
	return nil, errors.New("missing STREAMINFO block")
}

// parseStreamInfo decodes a 34-byte FLAC STREAMINFO block.
func parseStreamInfo(block []byte) (AudioMetadata, error) {
	if len(block) < 18 {
		return AudioMetadata{}, errors.New("short STREAMINFO block")
	}
	sampleRate := uint64(block[10])<<12 | uint64(block[11])<<4 | uint64(block[12])>>4
	channels := int((block[12]>>1)&0x07) + 1
	totalSamples := uint64(block[13]&0x0F)<<32 | uint64(binary.BigEndian.Uint32(block[14:18]))
	if sampleRate == 0 {
		return AudioMetadata{}, errors.New("STREAMINFO sample rate is zero")
	}
	return AudioMetadata{
		Duration:   durationOf(totalSamples, sampleRate),
		SampleRate: int(sampleRate),
		Channels:   channels,
		Format:     "flac",
		Codec:      "flac",
	}, nil
}

func parseM4A(data []byte) (Metadata, error) {
	movie, err := parseBMFF(data)
	if err != nil {
		return nil, err
	}
	track, ok := movie.firstTrack("soun")
	if !ok {
		return nil, errors.New("no audio track")
	}
	metadata := AudioMetadata{
		Duration:   movie.trackDuration(track),
		SampleRate: int(track.Timescale),
		Format:     "m4a",
		Codec:      bmffCodec(track.SampleEntry),
	}
	// AudioSampleEntry: 8 bytes SampleEntry, 8 reserved, then
	// channelcount, samplesize, 4 reserved, and a 16.16 samplerate.
	if entry := track.SampleEntryPayload; len(entry) >= 28 {
		metadata.Channels = int(binary.BigEndian.Uint16(entry[16:18]))
		if rate := int(binary.BigEndian.Uint32(entry[24:28]) >> 16); rate > 0 {
			metadata.SampleRate = rate
		}
	}
	return metadata, nil
}

var adtsSampleRates = [...]int{96000, 88200, 64000, 48000, 44100, 32000, 24000, 22050, 16000, 12000, 11025, 8000, 7350}

// parseADTS walks ADTS frames, summing 1024 samples per raw data
// block.
func parseADTS(data []byte) (Metadata, error) {
	offset := skipID3v2(data)
	var sampleRate, channels int
	var samples uint64
	frames := 0
	for offset+7 <= len(data) {
		header := data[offset:]
		if header[0] != 0xFF || header[1]&0xF6 != 0xF0 {
			break
		}
		rateIndex := int((header[2] >> 2) & 0x0F)
		if rateIndex >= len(adtsSampleRates) {
			return nil, fmt.Errorf("invalid ADTS sampling frequency index %d", rateIndex)
		}
		frameLength := int(header[3]&0x03)<<11 | int(header[4])<<3 | int(header[5])>>5
		if frameLength < 7 {
			break
		}
		if frames == 0 {
			sampleRate = adtsSampleRates[rateIndex]
			channels = int(header[2]&0x01)<<2 | int(header[3]>>6)
		}
		samples += uint64(header[6]&0x03+1) * 1024
		frames++
		offset += frameLength
	}
	if frames == 0 {
		return nil, errors.New("no ADTS frame header")
	}
	return AudioMetadata{
		Duration:   durationOf(samples, uint64(sampleRate)),
		SampleRate: sampleRate,
		Channels:   channels,
		Format:     "aac",
		Codec:      "aac",
	}, nil
}
