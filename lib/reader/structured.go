// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reader

import (
	"context"

	"github.com/bureau-foundation/atelier/lib/asset"
	"github.com/bureau-foundation/atelier/lib/fsbridge"
	"github.com/bureau-foundation/atelier/lib/validate"
)

type structuredReader struct {
	fs fsbridge.FS
}

func (r *structuredReader) Kind() asset.Kind { return asset.KindStructuredData }

// Read returns the parsed document as Result.Payload. Content that
// does not parse is not an error: the result carries Valid=false and
// the parser message so an editor can show the broken file.
func (r *structuredReader) Read(ctx context.Context, path string) (*Result, error) {
	return r.readAs(ctx, path, validate.Extension(path))
}

func (r *structuredReader) readAs(ctx context.Context, path, extension string) (*Result, error) {
	data, err := readRaw(ctx, r.fs, asset.KindStructuredData, path)
	if err != nil {
		return nil, err
	}
	metadata := StructuredMetadata{Format: structuredFormat(extension), Valid: true}

	payload, parseErr := validate.ParseStructured(extension, data)
	if parseErr != nil {
		metadata.Valid = false
		metadata.Error = parseErr.Error()
		payload = nil
	}
	return &Result{
		Kind:     asset.KindStructuredData,
		Path:     path,
		Data:     data,
		Payload:  payload,
		Metadata: metadata,
	}, nil
}

func structuredFormat(extension string) string {
	switch extension {
	case "yaml", "yml":
		return "yaml"
	case "jsonc":
		return "jsonc"
	default:
		return "json"
	}
}
