// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reader

import (
	"context"
	"fmt"
	"time"

	"github.com/bureau-foundation/atelier/lib/asset"
	"github.com/bureau-foundation/atelier/lib/fsbridge"
)

// Reader reads the file at path and derives kind-specific metadata.
type Reader interface {
	Kind() asset.Kind
	Read(ctx context.Context, path string) (*Result, error)
}

// Result is a successful read.
type Result struct {
	Kind asset.Kind
	Path string

	// Data is the file's raw bytes.
	Data []byte

	// Payload is the parsed document for structured data and nil for
	// every other kind.
	Payload any

	Metadata Metadata
}

// Metadata is one of ImageMetadata, AudioMetadata, VideoMetadata,
// StructuredMetadata, FontMetadata, or OtherMetadata. The set is
// closed: the interface cannot be implemented outside this package.
type Metadata interface {
	Kind() asset.Kind
	metadata()
}

// ImageMetadata describes a raster or vector image.
type ImageMetadata struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

// AudioMetadata describes an audio stream. Duration is zero when the
// container does not record enough to compute it.
type AudioMetadata struct {
	Duration   time.Duration `json:"duration"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Format     string        `json:"format"`
	Codec      string        `json:"codec,omitempty"`
}

// VideoMetadata describes the first video track of a container.
type VideoMetadata struct {
	Duration time.Duration `json:"duration"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Format   string        `json:"format"`
	Codec    string        `json:"codec,omitempty"`
}

// StructuredMetadata reports whether a structured-data file parsed.
// Error carries the parser message when Valid is false.
type StructuredMetadata struct {
	Format string `json:"format"`
	Valid  bool   `json:"valid"`
	Error  string `json:"error,omitempty"`
}

// FontMetadata carries best-effort naming. Family and Style are empty
// when the font has no readable name table (WOFF2 in particular).
type FontMetadata struct {
	Family string `json:"family"`
	Style  string `json:"style"`
	Format string `json:"format"`
	Glyphs int    `json:"glyphs,omitempty"`
}

// OtherMetadata is what can be said about an arbitrary file.
type OtherMetadata struct {
	MIMEType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

func (ImageMetadata) Kind() asset.Kind      { return asset.KindImage }
func (AudioMetadata) Kind() asset.Kind      { return asset.KindAudio }
func (VideoMetadata) Kind() asset.Kind      { return asset.KindVideo }
func (StructuredMetadata) Kind() asset.Kind { return asset.KindStructuredData }
func (FontMetadata) Kind() asset.Kind       { return asset.KindFont }
func (OtherMetadata) Kind() asset.Kind      { return asset.KindOther }

func (ImageMetadata) metadata()      {}
func (AudioMetadata) metadata()      {}
func (VideoMetadata) metadata()      {}
func (StructuredMetadata) metadata() {}
func (FontMetadata) metadata()       {}
func (OtherMetadata) metadata()      {}

// Table maps every kind to its reader. It is built once and never
// modified.
type Table struct {
	readers map[asset.Kind]Reader
}

// NewTable returns the reader table for all six kinds, each reading
// through filesystem.
func NewTable(filesystem fsbridge.FS) *Table {
	readers := []Reader{
		&imageReader{fs: filesystem},
		&audioReader{fs: filesystem},
		&videoReader{fs: filesystem},
		&structuredReader{fs: filesystem},
		&fontReader{fs: filesystem},
		&otherReader{fs: filesystem},
	}
	table := &Table{readers: make(map[asset.Kind]Reader, len(readers))}
	for _, reader := range readers {
		table.readers[reader.Kind()] = reader
	}
	return table
}

// For returns the reader registered for kind, or an Unsupported
// error.
func (t *Table) For(kind asset.Kind) (Reader, error) {
	reader, exists := t.readers[kind]
	if !exists {
		return nil, asset.Errorf(asset.CodeUnsupported, "read", string(kind), "no reader registered for kind %q", kind)
	}
	return reader, nil
}

// Read dispatches to the reader for kind.
func (t *Table) Read(ctx context.Context, kind asset.Kind, path string) (*Result, error) {
	reader, err := t.For(kind)
	if err != nil {
		return nil, err
	}
	return reader.Read(ctx, path)
}

// extensionReader is implemented by readers that consult the file
// extension when content alone is ambiguous (SVG without a prolog,
// JSON versus YAML).
type extensionReader interface {
	readAs(ctx context.Context, path, extension string) (*Result, error)
}

// ReadAs reads path as though it were named with extension. Stored
// payloads carry no extension of their own, so callers pass the one
// the asset was imported with.
func (t *Table) ReadAs(ctx context.Context, kind asset.Kind, path, extension string) (*Result, error) {
	reader, err := t.For(kind)
	if err != nil {
		return nil, err
	}
	if hinted, ok := reader.(extensionReader); ok {
		return hinted.readAs(ctx, path, extension)
	}
	return reader.Read(ctx, path)
}

// readRaw loads path through the filesystem, mapping failures into
// IOFailure errors that name the kind.
func readRaw(ctx context.Context, filesystem fsbridge.FS, kind asset.Kind, path string) ([]byte, error) {
	data, err := filesystem.ReadFile(ctx, path)
	if err != nil {
		return nil, &asset.Error{
			Code:    asset.CodeIOFailure,
			Op:      "read " + string(kind),
			Subject: path,
			Message: "reading file",
			Err:     err,
		}
	}
	return data, nil
}

// extract runs parse with panic recovery. Any failure becomes a
// ValidationFailed error naming the kind, the path, and the cause.
func extract(kind asset.Kind, path string, parse func() (Metadata, error)) (metadata Metadata, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			metadata = nil
			err = asset.Errorf(asset.CodeValidationFailed, "read "+string(kind), path,
				"%s metadata extraction failed: parser panic: %v", kind, recovered)
		}
	}()
	metadata, err = parse()
	if err != nil {
		return nil, &asset.Error{
			Code:    asset.CodeValidationFailed,
			Op:      "read " + string(kind),
			Subject: path,
			Message: fmt.Sprintf("%s metadata extraction failed", kind),
			Err:     err,
		}
	}
	return metadata, nil
}

// read is the shared body of the binary-kind readers.
func read(ctx context.Context, filesystem fsbridge.FS, kind asset.Kind, path string, parse func([]byte) (Metadata, error)) (*Result, error) {
	data, err := readRaw(ctx, filesystem, kind, path)
	if err != nil {
		return nil, err
	}
	metadata, err := extract(kind, path, func() (Metadata, error) { return parse(data) })
	if err != nil {
		return nil, err
	}
	return &Result{Kind: kind, Path: path, Data: data, Metadata: metadata}, nil
}

// durationOf converts a count of units at rate units per second to a
// Duration without intermediate overflow for realistic media lengths.
func durationOf(units uint64, rate uint64) time.Duration {
	if rate == 0 {
		return 0
	}
	seconds := units / rate
	remainder := units % rate
	return time.Duration(seconds)*time.Second + time.Duration(remainder*uint64(time.Second)/rate)
}
