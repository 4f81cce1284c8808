// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

// WriteFile writes data to name under directory and returns the full
// path.
func WriteFile(t testing.TB, directory, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(directory, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating fixture directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing fixture %s: %v", path, err)
	}
	return path
}

func gradient(width, height int) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			canvas.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 13), B: 128, A: 255})
		}
	}
	return canvas
}

// PNG returns a width×height PNG image.
func PNG(t testing.TB, width, height int) []byte {
	t.Helper()
	var buffer bytes.Buffer
	if err := png.Encode(&buffer, gradient(width, height)); err != nil {
		t.Fatalf("encoding PNG fixture: %v", err)
	}
	return buffer.Bytes()
}

// JPEG returns a width×height baseline JPEG image.
func JPEG(t testing.TB, width, height int) []byte {
	t.Helper()
	var buffer bytes.Buffer
	if err := jpeg.Encode(&buffer, gradient(width, height), &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("encoding JPEG fixture: %v", err)
	}
	return buffer.Bytes()
}

// GIF returns a width×height single-frame GIF image.
func GIF(t testing.TB, width, height int) []byte {
	t.Helper()
	var buffer bytes.Buffer
	if err := gif.Encode(&buffer, gradient(width, height), nil); err != nil {
		t.Fatalf("encoding GIF fixture: %v", err)
	}
	return buffer.Bytes()
}

// WAV returns a PCM WAVE file holding frames sample frames of silence.
func WAV(sampleRate, channels, bitsPerSample, frames int) []byte {
	blockAlign := channels * bitsPerSample / 8
	dataSize := frames * blockAlign

	var buffer bytes.Buffer
	buffer.WriteString("RIFF")
	binary.Write(&buffer, binary.LittleEndian, uint32(36+dataSize))
	buffer.WriteString("WAVE")

	buffer.WriteString("fmt ")
	binary.Write(&buffer, binary.LittleEndian, uint32(16))
	binary.Write(&buffer, binary.LittleEndian, uint16(1))
	binary.Write(&buffer, binary.LittleEndian, uint16(channels))
	binary.Write(&buffer, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buffer, binary.LittleEndian, uint32(sampleRate*blockAlign))
	binary.Write(&buffer, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buffer, binary.LittleEndian, uint16(bitsPerSample))

	buffer.WriteString("data")
	binary.Write(&buffer, binary.LittleEndian, uint32(dataSize))
	buffer.Write(make([]byte, dataSize))
	return buffer.Bytes()
}

// Font returns the Go Regular TrueType font (family "Go", subfamily
// "Regular").
func Font() []byte {
	return append([]byte(nil), goregular.TTF...)
}

// box encodes one ISO BMFF box.
func box(boxType string, payload ...[]byte) []byte {
	var body bytes.Buffer
	for _, part := range payload {
		body.Write(part)
	}
	var buffer bytes.Buffer
	binary.Write(&buffer, binary.BigEndian, uint32(8+body.Len()))
	buffer.WriteString(boxType)
	buffer.Write(body.Bytes())
	return buffer.Bytes()
}

func be32(values ...uint32) []byte {
	out := make([]byte, 4*len(values))
	for i, value := range values {
		binary.BigEndian.PutUint32(out[4*i:], value)
	}
	return out
}

func be16(values ...uint16) []byte {
	out := make([]byte, 2*len(values))
	for i, value := range values {
		binary.BigEndian.PutUint16(out[2*i:], value)
	}
	return out
}

// mvhd builds a version-0 movie header.
func mvhd(timescale, duration uint32) []byte {
	return box("mvhd",
		be32(0, 0, 0, timescale, duration, 0x00010000),
		be16(0x0100),
		make([]byte, 10),
		make([]byte, 36),
		make([]byte, 24),
		be32(2),
	)
}

// tkhd builds a version-0 track header with 16.16 fixed-point size.
func tkhd(width, height uint32) []byte {
	return box("tkhd",
		be32(0x00000007, 0, 0, 1, 0, 0),
		make([]byte, 8),
		be16(0, 0, 0, 0),
		make([]byte, 36),
		be32(width<<16, height<<16),
	)
}

func hdlr(handler string) []byte {
	return box("hdlr", be32(0, 0), []byte(handler), make([]byte, 12), []byte("handler\x00"))
}

func mdhd(timescale, duration uint32) []byte {
	return box("mdhd", be32(0, 0, 0, timescale, duration), be16(0x55C4, 0))
}

// MP4Video returns an MP4 with one video track of the given size.
// Duration is expressed in timescale units.
func MP4Video(timescale, duration, width, height uint32) []byte {
	ftyp := box("ftyp", []byte("isom"), be32(0x200), []byte("isomiso2mp41"))
	trak := box("trak",
		tkhd(width, height),
		box("mdia", mdhd(timescale, duration), hdlr("vide")),
	)
	moov := box("moov", mvhd(timescale, duration), trak)
	mdat := box("mdat", make([]byte, 64))
	return bytes.Join([][]byte{ftyp, moov, mdat}, nil)
}

// M4A returns an MPEG-4 audio file with one AAC sample entry.
func M4A(sampleRate, channels, seconds uint32) []byte {
	ftyp := box("ftyp", []byte("M4A "), be32(0), []byte("M4A mp42isom"))
	mp4a := box("mp4a",
		make([]byte, 6), be16(1),
		be16(0, 0), be32(0),
		be16(uint16(channels), 16, 0, 0),
		be32(sampleRate<<16),
	)
	stsd := box("stsd", be32(0, 1), mp4a)
	trak := box("trak",
		tkhd(0, 0),
		box("mdia",
			mdhd(sampleRate, sampleRate*seconds),
			hdlr("soun"),
			box("minf", box("stbl", stsd)),
		),
	)
	moov := box("moov", mvhd(1000, 1000*seconds), trak)
	return bytes.Join([][]byte{ftyp, moov, box("mdat", make([]byte, 32))}, nil)
}
