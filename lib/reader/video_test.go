// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/bureau-foundation/atelier/lib/asset"
	"github.com/bureau-foundation/atelier/lib/testutil"
)

// ebmlElementBytes encodes one EBML element with an 8-byte size.
func ebmlElementBytes(id []byte, payload ...[]byte) []byte {
	body := bytes.Join(payload, nil)
	size := make([]byte, 8)
	binary.BigEndian.PutUint64(size, uint64(len(body)))
	size[0] = 0x01
	return bytes.Join([][]byte{id, size, body}, nil)
}

func matroskaFile(docType string, durationTicks float64, width, height uint16) []byte {
	duration := make([]byte, 8)
	binary.BigEndian.PutUint64(duration, math.Float64bits(durationTicks))
	pixelWidth := make([]byte, 2)
	binary.BigEndian.PutUint16(pixelWidth, width)
	pixelHeight := make([]byte, 2)
	binary.BigEndian.PutUint16(pixelHeight, height)

	header := ebmlElementBytes([]byte{0x1A, 0x45, 0xDF, 0xA3},
		ebmlElementBytes([]byte{0x42, 0x86}, []byte{0x01}),
		ebmlElementBytes([]byte{0x42, 0x82}, []byte(docType)),
	)
	info := ebmlElementBytes([]byte{0x15, 0x49, 0xA9, 0x66},
		ebmlElementBytes([]byte{0x2A, 0xD7, 0xB1}, []byte{0x0F, 0x42, 0x40}),
		ebmlElementBytes([]byte{0x44, 0x89}, duration),
	)
	audioTrack := ebmlElementBytes([]byte{0xAE},
		ebmlElementBytes([]byte{0x83}, []byte{0x02}),
		ebmlElementBytes([]byte{0x86}, []byte("A_OPUS")),
	)
	videoTrack := ebmlElementBytes([]byte{0xAE},
		ebmlElementBytes([]byte{0x83}, []byte{0x01}),
		ebmlElementBytes([]byte{0x86}, []byte("V_VP9")),
		ebmlElementBytes([]byte{0xE0},
			ebmlElementBytes([]byte{0xB0}, pixelWidth),
			ebmlElementBytes([]byte{0xBA}, pixelHeight),
		),
	)
	tracks := ebmlElementBytes([]byte{0x16, 0x54, 0xAE, 0x6B}, audioTrack, videoTrack)
	cluster := ebmlElementBytes([]byte{0x1F, 0x43, 0xB6, 0x75}, make([]byte, 32))
	segment := ebmlElementBytes([]byte{0x18, 0x53, 0x80, 0x67}, info, tracks, cluster)
	return append(header, segment...)
}

func riffChunkBytes(id string, payload []byte) []byte {
	var buffer bytes.Buffer
	buffer.WriteString(id)
	binary.Write(&buffer, binary.LittleEndian, uint32(len(payload)))
	buffer.Write(payload)
	if len(payload)%2 == 1 {
		buffer.WriteByte(0)
	}
	return buffer.Bytes()
}

func aviFile(microsecondsPerFrame, totalFrames, width, height uint32, handler string) []byte {
	mainHeader := make([]byte, 56)
	binary.LittleEndian.PutUint32(mainHeader[0:], microsecondsPerFrame)
	binary.LittleEndian.PutUint32(mainHeader[16:], totalFrames)
	binary.LittleEndian.PutUint32(mainHeader[24:], 1)
	binary.LittleEndian.PutUint32(mainHeader[32:], width)
	binary.LittleEndian.PutUint32(mainHeader[36:], height)

	streamHeader := make([]byte, 56)
	copy(streamHeader, "vids")
	copy(streamHeader[4:], handler)

	streamList := riffChunkBytes("LIST", append([]byte("strl"), riffChunkBytes("strh", streamHeader)...))
	headerList := riffChunkBytes("LIST", bytes.Join([][]byte{[]byte("hdrl"), riffChunkBytes("avih", mainHeader), streamList}, nil))
	movieList := riffChunkBytes("LIST", append([]byte("movi"), make([]byte, 16)...))
	return riffChunkBytes("RIFF", bytes.Join([][]byte{[]byte("AVI "), headerList, movieList}, nil))
}

func theoraIdentification(width, height, frameRate uint32, granuleShift byte) []byte {
	header := make([]byte, 42)
	copy(header, "\x80theora")
	header[7], header[8], header[9] = 3, 2, 1
	binary.BigEndian.PutUint16(header[10:], uint16((width+15)/16))
	binary.BigEndian.PutUint16(header[12:], uint16((height+15)/16))
	header[14], header[15], header[16] = byte(width>>16), byte(width>>8), byte(width)
	header[17], header[18], header[19] = byte(height>>16), byte(height>>8), byte(height)
	binary.BigEndian.PutUint32(header[22:], frameRate)
	binary.BigEndian.PutUint32(header[26:], 1)
	header[40] = granuleShift >> 3
	header[41] = (granuleShift & 0x07) << 5
	return header
}

func TestVideoReaderMP4(t *testing.T) {
	result := mustRead(t, asset.KindVideo, "intro.mp4", testutil.MP4Video(600, 3000, 1280, 720))
	metadata := result.Metadata.(VideoMetadata)
	if metadata.Width != 1280 || metadata.Height != 720 || metadata.Format != "mp4" {
		t.Errorf("metadata = %+v", metadata)
	}
	assertDuration(t, metadata.Duration, 5*time.Second)
}

func TestVideoReaderMatroska(t *testing.T) {
	tests := []struct {
		name    string
		docType string
	}{
		{"cutscene.webm", "webm"},
		{"cutscene.mkv", "matroska"},
	}
	for _, test := range tests {
		metadata := mustRead(t, asset.KindVideo, test.name, matroskaFile(test.docType, 2500, 640, 360)).Metadata.(VideoMetadata)
		if metadata.Width != 640 || metadata.Height != 360 || metadata.Format != test.docType || metadata.Codec != "vp9" {
			t.Errorf("%s: metadata = %+v", test.name, metadata)
		}
		assertDuration(t, metadata.Duration, 2500*time.Millisecond)
	}
}

func TestVideoReaderAVI(t *testing.T) {
	metadata := mustRead(t, asset.KindVideo, "legacy.avi", aviFile(40000, 100, 160, 120, "H264")).Metadata.(VideoMetadata)
	if metadata.Width != 160 || metadata.Height != 120 || metadata.Format != "avi" || metadata.Codec != "h264" {
		t.Errorf("metadata = %+v", metadata)
	}
	assertDuration(t, metadata.Duration, 4*time.Second)
}

func TestVideoReaderTheora(t *testing.T) {
	// Keyframe 96 plus 3 frames at 25 fps.
	const shift = 6
	data := oggFile(theoraIdentification(320, 240, 25, shift), 50<<shift, 96<<shift|3)
	metadata := mustRead(t, asset.KindVideo, "old.ogv", data).Metadata.(VideoMetadata)
	if metadata.Width != 320 || metadata.Height != 240 || metadata.Codec != "theora" {
		t.Errorf("metadata = %+v", metadata)
	}
	assertDuration(t, metadata.Duration, 99*time.Second/25)
}

func TestVideoReaderAudioOnlyContainer(t *testing.T) {
	_, err := readFixture(t, asset.KindVideo, "song.mp4", testutil.M4A(44100, 2, 1))
	if !errors.Is(err, asset.ErrValidationFailed) {
		t.Errorf("Read(audio-only mp4) = %v, want ValidationFailed", err)
	}
}

func TestVideoReaderTruncatedMatroska(t *testing.T) {
	full := matroskaFile("webm", 1000, 64, 64)
	_, err := readFixture(t, asset.KindVideo, "cut.webm", full[:20])
	if !errors.Is(err, asset.ErrValidationFailed) {
		t.Errorf("Read(truncated webm) = %v, want ValidationFailed", err)
	}
}
