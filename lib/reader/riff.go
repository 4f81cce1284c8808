// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reader

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// riffChunk is one chunk of a RIFF container. For LIST chunks, Form is
// the list type and Payload excludes it.
type riffChunk struct {
	ID      string
	Form    string
	Payload []byte
}

// riffChunks splits a sequence of RIFF chunks. A final chunk whose
// declared size runs past the data is truncated rather than rejected:
// streaming writers often leave the size of the last chunk unset.
func riffChunks(data []byte) ([]riffChunk, error) {
	var chunks []riffChunk
	for len(data) >= 8 {
		id := string(data[:4])
		size := int(binary.LittleEndian.Uint32(data[4:8]))
		data = data[8:]
		if size > len(data) || size < 0 {
			size = len(data)
		}
		chunk := riffChunk{ID: id, Payload: data[:size]}
		if id == "LIST" && size >= 4 {
			chunk.Form = string(chunk.Payload[:4])
			chunk.Payload = chunk.Payload[4:]
		}
		chunks = append(chunks, chunk)

		advance := size + size&1
		if advance > len(data) {
			advance = len(data)
		}
		data = data[advance:]
	}
	return chunks, nil
}

// riffBody validates the 12-byte RIFF header and returns the chunks
// that follow it.
func riffBody(data []byte, form string) ([]riffChunk, error) {
	if len(data) < 12 || string(data[:4]) != "RIFF" {
		return nil, errors.New("missing RIFF header")
	}
	if string(data[8:12]) != form {
		return nil, fmt.Errorf("RIFF form is %q, want %q", data[8:12], form)
	}
	return riffChunks(data[12:])
}
