// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package shard

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression names the algorithm applied to a shard body.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// ParseCompression accepts a configured compression name. The empty
// string means none.
func ParseCompression(name string) (Compression, error) {
	switch Compression(name) {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionZstd:
		return CompressionZstd, nil
	case CompressionLZ4:
		return CompressionLZ4, nil
	default:
		return "", fmt.Errorf("unknown shard compression %q: must be none, zstd, or lz4", name)
	}
}

// minCompressSize is the body size below which compression is skipped.
// Shard bodies this small rarely shrink and the framing overhead of
// either codec would dominate.
const minCompressSize = 256

// maxRawSize bounds the decompression buffer a shard envelope can
// request. A corrupted raw_size must not turn into a huge allocation.
const maxRawSize = 1 << 30

// errIncompressible signals that compression did not reduce the size.
// The caller stores the body uncompressed instead.
var errIncompressible = errors.New("data is incompressible")

// zstd.Encoder and zstd.Decoder are safe for concurrent EncodeAll and
// DecodeAll calls; every shard write and read shares these two.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("shard: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("shard: zstd decoder initialization failed: " + err.Error())
	}
}

// compressBody compresses body with the requested algorithm, falling
// back to CompressionNone when the body is small or does not shrink.
// Returns the bytes to store and the algorithm actually applied.
func compressBody(body []byte, compression Compression) ([]byte, Compression, error) {
	if compression == CompressionNone || len(body) < minCompressSize {
		return body, CompressionNone, nil
	}

	var (
		compressed []byte
		err        error
	)
	switch compression {
	case CompressionZstd:
		compressed, err = compressZstd(body)
	case CompressionLZ4:
		compressed, err = compressLZ4(body)
	default:
		return nil, "", fmt.Errorf("unsupported shard compression %q", compression)
	}
	if errors.Is(err, errIncompressible) {
		return body, CompressionNone, nil
	}
	if err != nil {
		return nil, "", err
	}
	return compressed, compression, nil
}

// decompressBody reverses compressBody. rawSize must match the
// original body length exactly.
func decompressBody(stored []byte, compression Compression, rawSize int) ([]byte, error) {
	if rawSize < 0 || rawSize > maxRawSize {
		return nil, fmt.Errorf("raw size %d outside [0, %d]", rawSize, maxRawSize)
	}
	switch compression {
	case CompressionNone, "":
		if len(stored) != rawSize {
			return nil, fmt.Errorf("uncompressed body is %d bytes, envelope says %d", len(stored), rawSize)
		}
		return stored, nil
	case CompressionZstd:
		return decompressZstd(stored, rawSize)
	case CompressionLZ4:
		return decompressLZ4(stored, rawSize)
	default:
		return nil, fmt.Errorf("unsupported shard compression %q", compression)
	}
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, rawSize int) ([]byte, error) {
	destination, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, rawSize))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(destination) != rawSize {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(destination), rawSize)
	}
	return destination, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(compressed []byte, rawSize int) ([]byte, error) {
	destination := make([]byte, rawSize)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != rawSize {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, rawSize)
	}
	return destination, nil
}
