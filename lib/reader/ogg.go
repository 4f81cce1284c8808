// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reader

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// noGranule marks a page on which no packet completes.
const noGranule = 0xFFFFFFFFFFFFFFFF

type oggPage struct {
	HeaderType byte
	Granule    uint64
	Serial     uint32
	Payload    []byte
}

// oggPages splits data into Ogg pages, resynchronizing on the next
// capture pattern after damaged bytes. CRCs are not verified; only
// header fields are consumed.
func oggPages(data []byte) []oggPage {
	capture := []byte("OggS")
	var pages []oggPage
	for {
		start := bytes.Index(data, capture)
		if start < 0 {
			return pages
		}
		data = data[start:]
		if len(data) < 27 {
			return pages
		}
		segments := int(data[26])
		if len(data) < 27+segments {
			return pages
		}
		payloadSize := 0
		for _, lacing := range data[27 : 27+segments] {
			payloadSize += int(lacing)
		}
		headerSize := 27 + segments
		if len(data) < headerSize+payloadSize {
			return pages
		}
		pages = append(pages, oggPage{
			HeaderType: data[5],
			Granule:    binary.LittleEndian.Uint64(data[6:14]),
			Serial:     binary.LittleEndian.Uint32(data[14:18]),
			Payload:    data[headerSize : headerSize+payloadSize],
		})
		data = data[headerSize+payloadSize:]
	}
}

// oggStream is the first logical bitstream of a physical Ogg file.
type oggStream struct {
	// Identification is the payload of the stream's first page, which
	// holds exactly the codec identification packet.
	Identification []byte

	// LastGranule is the highest granule position recorded for the
	// stream, or zero when none is known.
	LastGranule uint64
}

func firstOggStream(data []byte) (*oggStream, error) {
	pages := oggPages(data)
	if len(pages) == 0 {
		return nil, errors.New("no Ogg pages")
	}
	stream := &oggStream{Identification: pages[0].Payload}
	serial := pages[0].Serial
	for _, page := range pages[1:] {
		if page.Serial == serial && page.Granule != noGranule && page.Granule > stream.LastGranule {
			stream.LastGranule = page.Granule
		}
	}
	return stream, nil
}
