// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reader

import (
	"context"

	"github.com/gabriel-vasile/mimetype"

	"github.com/bureau-foundation/atelier/lib/asset"
	"github.com/bureau-foundation/atelier/lib/fsbridge"
)

type otherReader struct {
	fs fsbridge.FS
}

func (r *otherReader) Kind() asset.Kind { return asset.KindOther }

func (r *otherReader) Read(ctx context.Context, path string) (*Result, error) {
	return read(ctx, r.fs, asset.KindOther, path, func(data []byte) (Metadata, error) {
		return OtherMetadata{
			MIMEType: mimetype.Detect(data).String(),
			Size:     int64(len(data)),
		}, nil
	})
}
