// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
	"time"
)

type sampleRecord struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Tags     []string  `json:"tags,omitempty"`
	Size     int64     `json:"size"`
	Imported time.Time `json:"imported"`
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	original := sampleRecord{
		ID:       "0a1b2c3d",
		Name:     "hero-portrait",
		Tags:     []string{"character", "key-art"},
		Size:     48213,
		Imported: time.Date(2026, 3, 14, 15, 9, 26, 535897932, time.UTC),
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded.ID != original.ID || decoded.Name != original.Name || decoded.Size != original.Size {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, original)
	}
	if len(decoded.Tags) != 2 || decoded.Tags[1] != "key-art" {
		t.Errorf("tags = %v, want %v", decoded.Tags, original.Tags)
	}
	if !decoded.Imported.Equal(original.Imported) {
		t.Errorf("imported = %v, want %v (nanoseconds must survive)", decoded.Imported, original.Imported)
	}
}

func TestMarshalMapDeterministic(t *testing.T) {
	shard := map[string]sampleRecord{
		"ffff": {ID: "ffff", Name: "last"},
		"0000": {ID: "0000", Name: "first"},
		"8888": {ID: "8888", Name: "middle"},
	}

	first, err := Marshal(shard)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	for range 20 {
		again, err := Marshal(shard)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatal("map encoding is not deterministic across calls")
		}
	}
}

func TestUnmarshalAnyUsesStringKeys(t *testing.T) {
	data, err := Marshal(map[string]any{"width": 64, "nested": map[string]any{"ok": true}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	top, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded type = %T, want map[string]any", decoded)
	}
	if _, ok := top["nested"].(map[string]any); !ok {
		t.Errorf("nested type = %T, want map[string]any", top["nested"])
	}
}

func TestWellformed(t *testing.T) {
	data, err := Marshal(map[string]string{"a": "b"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := Wellformed(data); err != nil {
		t.Errorf("Wellformed(valid) = %v", err)
	}
	if err := Wellformed(data[:len(data)-1]); err == nil {
		t.Error("Wellformed(truncated) succeeded")
	}
	if err := Wellformed([]byte("{not cbor at all")); err == nil {
		t.Error("Wellformed(text) succeeded")
	}
}
