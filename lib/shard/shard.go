// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package shard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/atelier/lib/asset"
	"github.com/bureau-foundation/atelier/lib/codec"
	"github.com/bureau-foundation/atelier/lib/fsbridge"
)

// FormatVersion is the envelope version written by this package.
const FormatVersion = 1

// Type distinguishes the two shard families. It is recorded in the
// envelope so a metadata shard copied over a group shard is detected
// as corruption rather than decoded into the wrong record type.
type Type string

const (
	TypeMetadata Type = "metadata"
	TypeGroups   Type = "groups"
)

// envelope is the on-disk shard wrapper.
type envelope struct {
	Version     int         `cbor:"v"`
	Type        Type        `cbor:"type"`
	Kind        asset.Kind  `cbor:"kind"`
	Compression Compression `cbor:"compression"`
	RawSize     int         `cbor:"raw_size"`
	Body        []byte      `cbor:"body"`
}

// Encode serializes records as a complete shard for one kind.
func Encode[T any](shardType Type, kind asset.Kind, compression Compression, records map[string]T) ([]byte, error) {
	if records == nil {
		records = map[string]T{}
	}
	body, err := codec.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encoding %s shard body for %s: %w", shardType, kind, err)
	}

	stored, applied, err := compressBody(body, compression)
	if err != nil {
		return nil, fmt.Errorf("compressing %s shard for %s: %w", shardType, kind, err)
	}

	data, err := codec.Marshal(envelope{
		Version:     FormatVersion,
		Type:        shardType,
		Kind:        kind,
		Compression: applied,
		RawSize:     len(body),
		Body:        stored,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding %s shard envelope for %s: %w", shardType, kind, err)
	}
	return data, nil
}

// Decode parses a shard produced by Encode, verifying that the
// envelope names the expected type and kind.
func Decode[T any](data []byte, shardType Type, kind asset.Kind) (map[string]T, error) {
	if err := codec.Wellformed(data); err != nil {
		return nil, fmt.Errorf("shard is not well-formed CBOR: %w", err)
	}
	var wrapper envelope
	if err := codec.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("decoding shard envelope: %w", err)
	}
	if wrapper.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported shard version %d (want %d)", wrapper.Version, FormatVersion)
	}
	if wrapper.Type != shardType {
		return nil, fmt.Errorf("shard holds %q records, want %q", wrapper.Type, shardType)
	}
	if wrapper.Kind != kind {
		return nil, fmt.Errorf("shard belongs to kind %q, want %q", wrapper.Kind, kind)
	}

	body, err := decompressBody(wrapper.Body, wrapper.Compression, wrapper.RawSize)
	if err != nil {
		return nil, fmt.Errorf("decompressing shard body: %w", err)
	}

	records := map[string]T{}
	if err := codec.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decoding shard body: %w", err)
	}
	return records, nil
}

// Recovery describes a corrupted shard that Load reset.
type Recovery struct {
	// Path is the shard that failed to decode.
	Path string

	// BackupPath holds the original corrupted bytes.
	BackupPath string

	// Cause is the decode failure.
	Cause error
}

// File is one shard file on disk holding records of type T.
type File[T any] struct {
	fs          fsbridge.FS
	path        string
	shardType   Type
	kind        asset.Kind
	compression Compression
	logger      *slog.Logger
}

// FileOptions configures a File.
type FileOptions struct {
	FS          fsbridge.FS
	Path        string
	Type        Type
	Kind        asset.Kind
	Compression Compression
	Logger      *slog.Logger
}

// NewFile returns a handle to the shard at options.Path. No I/O is
// performed until Load or Save.
func NewFile[T any](options FileOptions) *File[T] {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	compression := options.Compression
	if compression == "" {
		compression = CompressionNone
	}
	return &File[T]{
		fs:          options.FS,
		path:        options.Path,
		shardType:   options.Type,
		kind:        options.Kind,
		compression: compression,
		logger:      logger,
	}
}

// Path returns the shard's filesystem path.
func (f *File[T]) Path() string { return f.path }

// BackupPath returns where Load preserves the first corrupted shard.
// Later recoveries use BackupPath() + ".1", ".2", and so on, so earlier
// backups are never overwritten.
func (f *File[T]) BackupPath() string { return f.path + ".bak" }

// nextBackupPath returns the first backup name not already in use.
func (f *File[T]) nextBackupPath(ctx context.Context) (string, error) {
	candidate := f.BackupPath()
	for n := 1; ; n++ {
		exists, err := f.fs.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s.%d", f.BackupPath(), n)
	}
}

// Load reads the shard, creating an empty one if none exists. A shard
// that fails to decode is backed up and reset; the returned Recovery
// is non-nil in that case and the map is empty. Only filesystem
// failures produce an error.
func (f *File[T]) Load(ctx context.Context) (map[string]T, *Recovery, error) {
	exists, err := f.fs.Exists(ctx, f.path)
	if err != nil {
		return nil, nil, fmt.Errorf("checking %s shard for %s: %w", f.shardType, f.kind, err)
	}
	if !exists {
		if err := f.Save(ctx, map[string]T{}); err != nil {
			return nil, nil, fmt.Errorf("initializing %s shard for %s: %w", f.shardType, f.kind, err)
		}
		return map[string]T{}, nil, nil
	}

	data, err := f.fs.ReadFile(ctx, f.path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s shard for %s: %w", f.shardType, f.kind, err)
	}

	records, decodeErr := Decode[T](data, f.shardType, f.kind)
	if decodeErr == nil {
		return records, nil, nil
	}

	backupPath, err := f.nextBackupPath(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("choosing backup name for %s shard %s: %w", f.shardType, f.path, err)
	}
	recovery := &Recovery{Path: f.path, BackupPath: backupPath, Cause: decodeErr}
	if err := f.fs.WriteFile(ctx, recovery.BackupPath, data); err != nil {
		return nil, nil, fmt.Errorf("backing up corrupted %s shard %s: %w", f.shardType, f.path, err)
	}
	if err := f.Save(ctx, map[string]T{}); err != nil {
		return nil, nil, fmt.Errorf("resetting corrupted %s shard %s: %w", f.shardType, f.path, err)
	}
	f.logger.Warn("corrupted shard reset",
		"type", string(f.shardType),
		"kind", string(f.kind),
		"path", f.path,
		"backup", recovery.BackupPath,
		"size", len(data),
		"error", decodeErr,
	)
	return map[string]T{}, recovery, nil
}

// Save overwrites the shard with the complete records map.
func (f *File[T]) Save(ctx context.Context, records map[string]T) error {
	data, err := Encode(f.shardType, f.kind, f.compression, records)
	if err != nil {
		return err
	}
	if err := f.fs.WriteFile(ctx, f.path, data); err != nil {
		return fmt.Errorf("writing %s shard for %s: %w", f.shardType, f.kind, err)
	}
	return nil
}
