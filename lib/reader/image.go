// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reader

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/bureau-foundation/atelier/lib/asset"
	"github.com/bureau-foundation/atelier/lib/fsbridge"
	"github.com/bureau-foundation/atelier/lib/validate"
)

type imageReader struct {
	fs fsbridge.FS
}

func (r *imageReader) Kind() asset.Kind { return asset.KindImage }

func (r *imageReader) Read(ctx context.Context, path string) (*Result, error) {
	return r.readAs(ctx, path, validate.Extension(path))
}

func (r *imageReader) readAs(ctx context.Context, path, extension string) (*Result, error) {
	return read(ctx, r.fs, asset.KindImage, path, func(data []byte) (Metadata, error) {
		return parseImage(extension, data)
	})
}

func parseImage(extension string, data []byte) (Metadata, error) {
	if format, ok := validate.Sniff(data); (ok && format == "svg") || (!ok && extension == "svg") {
		return parseSVG(data)
	}
	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image header: %w", err)
	}
	return ImageMetadata{Width: config.Width, Height: config.Height, Format: format}, nil
}

// parseSVG reads the root <svg> element's width and height, falling
// back to the viewBox when either is missing or relative.
func parseSVG(data []byte) (Metadata, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = false
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return nil, errors.New("no <svg> root element")
		}
		if err != nil {
			return nil, fmt.Errorf("parsing SVG: %w", err)
		}
		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "svg" {
			return nil, fmt.Errorf("root element is <%s>, not <svg>", start.Name.Local)
		}
		return svgDimensions(start.Attr)
	}
}

func svgDimensions(attributes []xml.Attr) (Metadata, error) {
	var widthText, heightText, viewBox string
	for _, attribute := range attributes {
		switch attribute.Name.Local {
		case "width":
			widthText = attribute.Value
		case "height":
			heightText = attribute.Value
		case "viewBox":
			viewBox = attribute.Value
		}
	}

	width, widthOK := svgLength(widthText)
	height, heightOK := svgLength(heightText)
	if !widthOK || !heightOK {
		fields := strings.FieldsFunc(viewBox, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' || r == '\n' })
		if len(fields) == 4 {
			viewWidth, errWidth := strconv.ParseFloat(fields[2], 64)
			viewHeight, errHeight := strconv.ParseFloat(fields[3], 64)
			if errWidth == nil && errHeight == nil {
				if !widthOK {
					width, widthOK = viewWidth, true
				}
				if !heightOK {
					height, heightOK = viewHeight, true
				}
			}
		}
	}
	if !widthOK || !heightOK {
		return nil, errors.New("SVG has neither absolute width/height nor a viewBox")
	}
	return ImageMetadata{
		Width:  int(math.Round(width)),
		Height: int(math.Round(height)),
		Format: "svg",
	}, nil
}

// svgLength parses an absolute SVG length in user units. Percentages
// and font-relative units are not absolute and report false.
func svgLength(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" || strings.HasSuffix(value, "%") || strings.HasSuffix(value, "em") || strings.HasSuffix(value, "ex") {
		return 0, false
	}
	scale := 1.0
	for suffix, factor := range map[string]float64{"px": 1, "pt": 4.0 / 3.0, "pc": 16, "in": 96, "cm": 96 / 2.54, "mm": 96 / 25.4} {
		if strings.HasSuffix(value, suffix) {
			value = strings.TrimSuffix(value, suffix)
			scale = factor
			break
		}
	}
	number, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || number < 0 {
		return 0, false
	}
	return number * scale, true
}
