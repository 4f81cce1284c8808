// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/atelier/lib/asset"
)

// linePicker chooses files by reading one path per line, so
// `find art -name '*.png' | atelier-assets import --kind image --stdin`
// works. Blank lines and lines starting with # are skipped; relative
// paths are made absolute.
type linePicker struct {
	input io.Reader
}

func (p *linePicker) Pick(ctx context.Context, kind asset.Kind) ([]string, error) {
	var paths []string
	scanner := bufio.NewScanner(p.input)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		path, err := filepath.Abs(line)
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", line, err)
		}
		paths = append(paths, path)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading paths: %w", err)
	}
	return paths, nil
}
