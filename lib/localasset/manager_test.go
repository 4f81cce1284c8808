// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package localasset

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/atelier/lib/asset"
	"github.com/bureau-foundation/atelier/lib/contenthash"
	"github.com/bureau-foundation/atelier/lib/fsbridge"
	"github.com/bureau-foundation/atelier/lib/metastore"
	"github.com/bureau-foundation/atelier/lib/reader"
	"github.com/bureau-foundation/atelier/lib/testutil"
)

// brokenHash fails every Hash call.
type brokenHash struct {
	fsbridge.FS
}

func (brokenHash) Hash(context.Context, string) (string, error) {
	return "", errors.New("hasher unavailable")
}

type fixture struct {
	manager  *Manager
	metadata *metastore.Store
	assets   string
	inputs   string
}

func newFixture(t *testing.T, fs fsbridge.FS) *fixture {
	t.Helper()
	root := t.TempDir()
	metadata := metastore.New(metastore.Options{FS: fs, Directory: filepath.Join(root, "metadata")})
	assets := filepath.Join(root, "assets")
	manager := New(Options{FS: fs, Directory: assets, Metadata: metadata})
	return &fixture{manager: manager, metadata: metadata, assets: assets, inputs: t.TempDir()}
}

func (f *fixture) importOne(t *testing.T, kind asset.Kind, path string) asset.Asset {
	t.Helper()
	results := f.manager.ImportFromPaths(context.Background(), kind, []string{path})
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Err != nil {
		t.Fatalf("importing %s: %v", path, results[0].Err)
	}
	return *results[0].Asset
}

func TestStoragePath(t *testing.T) {
	id := "0123456789abcdef0123456789abcdef"
	want := filepath.Join("01", "23", "456789abcdef0123456789abcdef")
	if got := StoragePath(id); got != want {
		t.Errorf("StoragePath = %q, want %q", got, want)
	}
}

func TestImportCopiesIntoShardedPath(t *testing.T) {
	f := newFixture(t, fsbridge.NewLocal())
	data := testutil.PNG(t, 8, 4)
	path := testutil.WriteFile(t, f.inputs, "hero.png", data)

	record := f.importOne(t, asset.KindImage, path)
	if record.Name != "hero" || record.Kind != asset.KindImage || record.Source != asset.SourceLocal {
		t.Errorf("record = %+v", record)
	}
	if record.OriginalPath != path || record.Size != int64(len(data)) {
		t.Errorf("OriginalPath = %q, Size = %d", record.OriginalPath, record.Size)
	}
	if want := contenthash.HashBytes(data).String(); record.ContentHash != want {
		t.Errorf("ContentHash = %q, want %q", record.ContentHash, want)
	}

	stored := filepath.Join(f.assets, record.ID[0:2], record.ID[2:4], record.ID[4:])
	if f.manager.Path(record.ID) != stored {
		t.Errorf("Path = %q, want %q", f.manager.Path(record.ID), stored)
	}
	copied, err := os.ReadFile(stored)
	if err != nil {
		t.Fatalf("payload not stored: %v", err)
	}
	if !bytes.Equal(copied, data) {
		t.Error("stored payload differs from the source")
	}
}

func TestImportSameFileTwiceGetsUniqueNames(t *testing.T) {
	f := newFixture(t, fsbridge.NewLocal())
	path := testutil.WriteFile(t, f.inputs, "hero.png", testutil.PNG(t, 2, 2))

	first := f.importOne(t, asset.KindImage, path)
	second := f.importOne(t, asset.KindImage, path)
	if first.Name != "hero" || second.Name != "hero-1" {
		t.Errorf("names = %q, %q; want hero, hero-1", first.Name, second.Name)
	}
	if first.ID == second.ID {
		t.Error("byte-identical imports share an id")
	}
	if first.ContentHash != second.ContentHash {
		t.Error("byte-identical imports have different hashes")
	}
	for _, record := range []asset.Asset{first, second} {
		if _, err := os.Stat(f.manager.Path(record.ID)); err != nil {
			t.Errorf("payload for %s missing: %v", record.Name, err)
		}
	}
}

func TestImportBatchContinuesPastFailures(t *testing.T) {
	f := newFixture(t, fsbridge.NewLocal())
	good := testutil.WriteFile(t, f.inputs, "good.png", testutil.PNG(t, 2, 2))
	lying := testutil.WriteFile(t, f.inputs, "lying.png", testutil.JPEG(t, 2, 2))
	empty := testutil.WriteFile(t, f.inputs, "empty.png", nil)
	missing := filepath.Join(f.inputs, "missing.png")
	alsoGood := testutil.WriteFile(t, f.inputs, "also.gif", testutil.GIF(t, 2, 2))

	paths := []string{good, lying, empty, missing, alsoGood}
	results := f.manager.ImportFromPaths(context.Background(), asset.KindImage, paths)
	if len(results) != len(paths) {
		t.Fatalf("got %d results, want %d", len(results), len(paths))
	}
	for i, result := range results {
		if result.Path != paths[i] {
			t.Errorf("result %d path = %q, want %q", i, result.Path, paths[i])
		}
	}

	wantCodes := []asset.ErrorCode{"", asset.CodeValidationFailed, asset.CodeValidationFailed, asset.CodeIOFailure, ""}
	for i, want := range wantCodes {
		if got := asset.CodeOf(results[i].Err); got != want {
			t.Errorf("result %d code = %q, want %q (err %v)", i, got, want, results[i].Err)
		}
		if (results[i].Asset != nil) != (want == "") {
			t.Errorf("result %d asset presence does not match outcome", i)
		}
	}
	if !strings.Contains(results[1].Err.Error(), "jpeg") {
		t.Errorf("mismatch error %q should name the detected format", results[1].Err)
	}

	summary := Summary(results)
	if summary.Succeeded != 2 || summary.Failed != 3 || len(summary.Failures) != 3 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.String() != "2 succeeded, 3 failed" {
		t.Errorf("summary string = %q", summary.String())
	}

	listed, err := f.metadata.List(context.Background(), asset.KindImage)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 2 {
		t.Errorf("metadata holds %d assets, want 2", len(listed))
	}
}

func TestImportCanceledContextFailsRemainingPaths(t *testing.T) {
	f := newFixture(t, fsbridge.NewLocal())
	path := testutil.WriteFile(t, f.inputs, "a.png", testutil.PNG(t, 2, 2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := f.manager.ImportFromPaths(ctx, asset.KindImage, []string{path, path})
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	for _, result := range results {
		if !errors.Is(result.Err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", result.Err)
		}
	}
}

func TestImportWithoutHashStillSucceeds(t *testing.T) {
	f := newFixture(t, brokenHash{FS: fsbridge.NewLocal()})
	path := testutil.WriteFile(t, f.inputs, "notes.txt", []byte("hello"))

	record := f.importOne(t, asset.KindOther, path)
	if record.ContentHash != "" {
		t.Errorf("ContentHash = %q, want empty", record.ContentHash)
	}
}

func TestFetch(t *testing.T) {
	f := newFixture(t, fsbridge.NewLocal())
	path := testutil.WriteFile(t, f.inputs, "tile.png", testutil.PNG(t, 16, 9))
	record := f.importOne(t, asset.KindImage, path)

	// The original may go away; fetch reads the stored copy.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	result, err := f.manager.Fetch(context.Background(), record)
	if err != nil {
		t.Fatal(err)
	}
	metadata, ok := result.Metadata.(reader.ImageMetadata)
	if !ok {
		t.Fatalf("metadata = %T, want ImageMetadata", result.Metadata)
	}
	if metadata.Width != 16 || metadata.Height != 9 || metadata.Format != "png" {
		t.Errorf("metadata = %+v", metadata)
	}

	remote := record
	remote.Source = asset.SourceRemote
	if _, err := f.manager.Fetch(context.Background(), remote); !errors.Is(err, asset.ErrUnsupported) {
		t.Errorf("remote fetch: err = %v, want Unsupported", err)
	}

	unknown := record
	unknown.Kind = asset.Kind("hologram")
	if _, err := f.manager.Fetch(context.Background(), unknown); !errors.Is(err, asset.ErrUnsupported) {
		t.Errorf("unknown kind: err = %v, want Unsupported", err)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t, fsbridge.NewLocal())
	ctx := context.Background()
	path := testutil.WriteFile(t, f.inputs, "a.txt", []byte("a"))
	record := f.importOne(t, asset.KindOther, path)

	removed, err := f.manager.Delete(ctx, asset.KindOther, record.ID)
	if err != nil {
		t.Fatal(err)
	}
	if removed.ID != record.ID {
		t.Errorf("removed = %+v", removed)
	}
	if _, err := os.Stat(f.manager.Path(record.ID)); !os.IsNotExist(err) {
		t.Errorf("payload still present: %v", err)
	}
	if exists, _ := f.metadata.Exists(ctx, asset.KindOther, record.ID); exists {
		t.Error("metadata record still present")
	}
	if _, err := f.manager.Delete(ctx, asset.KindOther, record.ID); !errors.Is(err, asset.ErrNotFound) {
		t.Errorf("second delete: err = %v, want NotFound", err)
	}
}

func TestDeleteWithMissingPayloadRemovesRecord(t *testing.T) {
	f := newFixture(t, fsbridge.NewLocal())
	ctx := context.Background()
	path := testutil.WriteFile(t, f.inputs, "a.txt", []byte("a"))
	record := f.importOne(t, asset.KindOther, path)

	if err := os.Remove(f.manager.Path(record.ID)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.manager.Delete(ctx, asset.KindOther, record.ID); err != nil {
		t.Fatalf("delete with missing payload: %v", err)
	}
	if exists, _ := f.metadata.Exists(ctx, asset.KindOther, record.ID); exists {
		t.Error("metadata record still present")
	}
}

func TestDuplicate(t *testing.T) {
	f := newFixture(t, fsbridge.NewLocal())
	ctx := context.Background()
	data := []byte(`{"level": 1}`)
	path := testutil.WriteFile(t, f.inputs, "level.json", data)
	original := f.importOne(t, asset.KindStructuredData, path)
	original, err := f.metadata.UpdateTags(ctx, asset.KindStructuredData, original.ID, []string{"world"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.metadata.SetGroup(ctx, asset.KindStructuredData, original.ID, "somegroup"); err != nil {
		t.Fatal(err)
	}

	duplicate, err := f.manager.Duplicate(ctx, asset.KindStructuredData, original.ID)
	if err != nil {
		t.Fatal(err)
	}
	if duplicate.ID == original.ID || duplicate.Name != "level-1" {
		t.Errorf("duplicate = %+v", duplicate)
	}
	if duplicate.GroupID != "" {
		t.Errorf("duplicate GroupID = %q, want none", duplicate.GroupID)
	}
	if len(duplicate.Tags) != 1 || duplicate.Tags[0] != "world" {
		t.Errorf("duplicate tags = %v", duplicate.Tags)
	}
	if duplicate.ContentHash != original.ContentHash {
		t.Error("duplicate hash differs from original")
	}
	copied, err := os.ReadFile(f.manager.Path(duplicate.ID))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(copied, data) {
		t.Error("duplicate payload differs")
	}

	again, err := f.manager.Duplicate(ctx, asset.KindStructuredData, original.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Name != "level-2" {
		t.Errorf("second duplicate name = %q, want level-2", again.Name)
	}

	if _, err := f.manager.Duplicate(ctx, asset.KindStructuredData, "missing"); !errors.Is(err, asset.ErrNotFound) {
		t.Errorf("missing source: err = %v, want NotFound", err)
	}
}

func TestDuplicateFallsBackToOriginalHash(t *testing.T) {
	local := fsbridge.NewLocal()
	f := newFixture(t, local)
	ctx := context.Background()
	path := testutil.WriteFile(t, f.inputs, "a.txt", []byte("alpha"))
	original := f.importOne(t, asset.KindOther, path)

	broken := New(Options{FS: brokenHash{FS: local}, Directory: f.assets, Metadata: f.metadata})
	duplicate, err := broken.Duplicate(ctx, asset.KindOther, original.ID)
	if err != nil {
		t.Fatal(err)
	}
	if duplicate.ContentHash != original.ContentHash || duplicate.ContentHash == "" {
		t.Errorf("duplicate hash = %q, want %q", duplicate.ContentHash, original.ContentHash)
	}
}
