// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metastore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/atelier/lib/asset"
	"github.com/bureau-foundation/atelier/lib/clock"
	"github.com/bureau-foundation/atelier/lib/fsbridge"
	"github.com/bureau-foundation/atelier/lib/shard"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// recorder captures hook calls.
type recorder struct {
	mu     sync.Mutex
	dirty  []asset.Kind
	events []asset.Event
}

func (r *recorder) hooks() asset.Hooks {
	return asset.Hooks{
		MarkDirty: func(kind asset.Kind) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.dirty = append(r.dirty, kind)
		},
		Emit: func(event asset.Event) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, event)
		},
	}
}

func (r *recorder) lastEvent(t *testing.T) asset.Event {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		t.Fatal("no events published")
	}
	return r.events[len(r.events)-1]
}

type fixture struct {
	store     *Store
	directory string
	clock     *clock.FakeClock
	recorder  *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureAt(t, t.TempDir())
}

func newFixtureAt(t *testing.T, directory string) *fixture {
	t.Helper()
	fake := clock.Fake(epoch)
	record := &recorder{}
	store := New(Options{
		FS:        fsbridge.NewLocal(),
		Directory: directory,
		Hooks:     record.hooks(),
		Clock:     fake,
	})
	return &fixture{store: store, directory: directory, clock: fake, recorder: record}
}

func (f *fixture) insert(t *testing.T, kind asset.Kind, name string) asset.Asset {
	t.Helper()
	inserted, err := f.store.Insert(context.Background(), asset.Asset{
		ID:   asset.NewID(),
		Kind: kind,
		Name: name,
	})
	if err != nil {
		t.Fatalf("Insert(%s): %v", name, err)
	}
	return inserted
}

func TestLoadCreatesMissingShard(t *testing.T) {
	f := newFixture(t)
	records, err := f.store.Load(context.Background(), asset.KindAudio)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records = %d, want 0", len(records))
	}
	if _, err := os.Stat(filepath.Join(f.directory, "audio.cbor")); err != nil {
		t.Errorf("shard not created: %v", err)
	}
	if f.store.Recovery(asset.KindAudio) != nil {
		t.Error("fresh shard reported a recovery")
	}
}

func TestInsertResolvesUniqueNames(t *testing.T) {
	f := newFixture(t)
	first := f.insert(t, asset.KindImage, "hero")
	second := f.insert(t, asset.KindImage, "hero")
	third := f.insert(t, asset.KindImage, "hero")
	other := f.insert(t, asset.KindAudio, "hero")

	if first.Name != "hero" || second.Name != "hero-1" || third.Name != "hero-2" {
		t.Errorf("names = %q, %q, %q; want hero, hero-1, hero-2", first.Name, second.Name, third.Name)
	}
	if other.Name != "hero" {
		t.Errorf("audio name = %q, want hero (names are unique per kind)", other.Name)
	}
	if first.Source != asset.SourceLocal {
		t.Errorf("source = %q, want local", first.Source)
	}
	if !first.CreatedAt.Equal(epoch) || !first.UpdatedAt.Equal(epoch) {
		t.Errorf("timestamps = %v / %v, want %v", first.CreatedAt, first.UpdatedAt, epoch)
	}
}

func TestInsertConcurrentSameName(t *testing.T) {
	f := newFixture(t)
	const count = 20
	names := make(chan string, count)
	var wait sync.WaitGroup
	for range count {
		wait.Add(1)
		go func() {
			defer wait.Done()
			inserted, err := f.store.Insert(context.Background(), asset.Asset{ID: asset.NewID(), Kind: asset.KindFont, Name: "title"})
			if err != nil {
				t.Errorf("Insert: %v", err)
				return
			}
			names <- inserted.Name
		}()
	}
	wait.Wait()
	close(names)

	seen := make(map[string]bool)
	for name := range names {
		if seen[name] {
			t.Errorf("name %q assigned twice", name)
		}
		seen[name] = true
	}
	if len(seen) != count {
		t.Errorf("got %d distinct names, want %d", len(seen), count)
	}
}

func TestInsertDuplicateID(t *testing.T) {
	f := newFixture(t)
	existing := f.insert(t, asset.KindImage, "a")
	_, err := f.store.Insert(context.Background(), asset.Asset{ID: existing.ID, Kind: asset.KindImage, Name: "b"})
	if !errors.Is(err, asset.ErrConflict) {
		t.Errorf("Insert(duplicate id) = %v, want Conflict", err)
	}
}

func TestRename(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hero := f.insert(t, asset.KindImage, "hero")
	f.insert(t, asset.KindImage, "villain")

	f.clock.Advance(time.Minute)
	renamed, err := f.store.Rename(ctx, asset.KindImage, hero.ID, "  champion ")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if renamed.Name != "champion" {
		t.Errorf("name = %q, want champion", renamed.Name)
	}
	if !renamed.UpdatedAt.Equal(epoch.Add(time.Minute)) {
		t.Errorf("updated_at = %v, want %v", renamed.UpdatedAt, epoch.Add(time.Minute))
	}
	if !renamed.CreatedAt.Equal(epoch) {
		t.Errorf("created_at changed to %v", renamed.CreatedAt)
	}
	event := f.recorder.lastEvent(t)
	if event.Type != asset.EventUpdated || event.Asset.Name != "champion" {
		t.Errorf("event = %+v, want updated champion", event)
	}

	if _, err := f.store.Rename(ctx, asset.KindImage, hero.ID, "villain"); !errors.Is(err, asset.ErrConflict) {
		t.Errorf("Rename to taken name = %v, want Conflict", err)
	}
	if _, err := f.store.Rename(ctx, asset.KindImage, hero.ID, "champion"); err != nil {
		t.Errorf("Rename to own name = %v, want nil", err)
	}
	if _, err := f.store.Rename(ctx, asset.KindImage, hero.ID, "   "); !errors.Is(err, asset.ErrValidationFailed) {
		t.Errorf("Rename to blank = %v, want ValidationFailed", err)
	}
	if _, err := f.store.Rename(ctx, asset.KindImage, "missing", "x"); !errors.Is(err, asset.ErrNotFound) {
		t.Errorf("Rename(missing) = %v, want NotFound", err)
	}

	stored, err := f.store.Get(ctx, asset.KindImage, hero.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Name != "champion" {
		t.Errorf("stored name = %q after rejected renames, want champion", stored.Name)
	}
}

func TestUpdateTagsAndDescription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	record := f.insert(t, asset.KindVideo, "intro")

	updated, err := f.store.UpdateTags(ctx, asset.KindVideo, record.ID, []string{"cutscene", " intro ", "cutscene", ""})
	if err != nil {
		t.Fatalf("UpdateTags: %v", err)
	}
	if !reflect.DeepEqual(updated.Tags, []string{"cutscene", "intro"}) {
		t.Errorf("tags = %v, want [cutscene intro]", updated.Tags)
	}

	updated, err = f.store.UpdateDescription(ctx, asset.KindVideo, record.ID, "Opening cinematic")
	if err != nil {
		t.Fatalf("UpdateDescription: %v", err)
	}
	if updated.Description != "Opening cinematic" || len(updated.Tags) != 2 {
		t.Errorf("record = %+v", updated)
	}

	if _, err := f.store.UpdateTags(ctx, asset.KindVideo, "nope", nil); !errors.Is(err, asset.ErrNotFound) {
		t.Errorf("UpdateTags(missing) = %v, want NotFound", err)
	}
	if _, err := f.store.UpdateDescription(ctx, asset.KindAudio, record.ID, "x"); !errors.Is(err, asset.ErrNotFound) {
		t.Errorf("UpdateDescription(wrong kind) = %v, want NotFound", err)
	}

	f.recorder.mu.Lock()
	defer f.recorder.mu.Unlock()
	// insert + two updates
	if len(f.recorder.dirty) != 3 {
		t.Errorf("dirty marks = %v, want 3", f.recorder.dirty)
	}
	for _, kind := range f.recorder.dirty {
		if kind != asset.KindVideo {
			t.Errorf("dirty kind = %q, want video", kind)
		}
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	record := f.insert(t, asset.KindImage, "a")
	tagged, err := f.store.UpdateTags(ctx, asset.KindImage, record.ID, []string{"one"})
	if err != nil {
		t.Fatal(err)
	}
	tagged.Tags[0] = "mutated"

	stored, err := f.store.Get(ctx, asset.KindImage, record.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Tags[0] != "one" {
		t.Errorf("store shares tag storage with callers: %v", stored.Tags)
	}
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	record := f.insert(t, asset.KindOther, "readme")

	removed, err := f.store.Remove(ctx, asset.KindOther, record.ID)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed.ID != record.ID {
		t.Errorf("removed id = %q, want %q", removed.ID, record.ID)
	}
	event := f.recorder.lastEvent(t)
	if event.Type != asset.EventDeleted || event.Asset.ID != record.ID {
		t.Errorf("event = %+v, want deleted %s", event, record.ID)
	}
	if _, err := f.store.Get(ctx, asset.KindOther, record.ID); !errors.Is(err, asset.ErrNotFound) {
		t.Errorf("Get after Remove = %v, want NotFound", err)
	}
	if _, err := f.store.Remove(ctx, asset.KindOther, record.ID); !errors.Is(err, asset.ErrNotFound) {
		t.Errorf("second Remove = %v, want NotFound", err)
	}
}

func TestListSortedAndGrouped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	charlie := f.insert(t, asset.KindImage, "charlie")
	f.insert(t, asset.KindImage, "alpha")
	bravo := f.insert(t, asset.KindImage, "bravo")
	for _, record := range []asset.Asset{charlie, bravo} {
		if _, err := f.store.SetGroup(ctx, asset.KindImage, record.ID, "group-1"); err != nil {
			t.Fatal(err)
		}
	}

	all, err := f.store.List(ctx, asset.KindImage)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, record := range all {
		names = append(names, record.Name)
	}
	if !reflect.DeepEqual(names, []string{"alpha", "bravo", "charlie"}) {
		t.Errorf("List names = %v", names)
	}

	grouped, err := f.store.ListInGroup(ctx, asset.KindImage, "group-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(grouped) != 2 || grouped[0].Name != "bravo" || grouped[1].Name != "charlie" {
		t.Errorf("ListInGroup = %v", grouped)
	}
	root, err := f.store.ListInGroup(ctx, asset.KindImage, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(root) != 1 || root[0].Name != "alpha" {
		t.Errorf("root assets = %v", root)
	}
}

func TestUniqueNameAndNameTaken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	record := f.insert(t, asset.KindFont, "body")
	f.insert(t, asset.KindFont, "body")

	name, err := f.store.UniqueName(ctx, asset.KindFont, "body")
	if err != nil {
		t.Fatal(err)
	}
	if name != "body-2" {
		t.Errorf("UniqueName = %q, want body-2", name)
	}
	taken, err := f.store.NameTaken(ctx, asset.KindFont, "body", record.ID)
	if err != nil {
		t.Fatal(err)
	}
	if taken {
		t.Error("NameTaken counts the excepted asset itself")
	}
}

func TestFlushRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	want := make(map[string]asset.Asset)
	for index := range 5 {
		record := f.insert(t, asset.KindAudio, fmt.Sprintf("clip-%d", index))
		record, err := f.store.UpdateTags(ctx, asset.KindAudio, record.ID, []string{"sfx", fmt.Sprintf("take-%d", index)})
		if err != nil {
			t.Fatal(err)
		}
		want[record.ID] = record
	}
	if err := f.store.Flush(ctx, asset.KindAudio); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reopened := newFixtureAt(t, f.directory)
	got, err := reopened.store.Load(ctx, asset.KindAudio)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("reloaded %d records, want %d", len(got), len(want))
	}
	for id, record := range want {
		loaded, exists := got[id]
		if !exists {
			t.Errorf("record %s missing after reload", id)
			continue
		}
		if loaded.Name != record.Name || !reflect.DeepEqual(loaded.Tags, record.Tags) ||
			!loaded.CreatedAt.Equal(record.CreatedAt) || loaded.Kind != record.Kind || loaded.Source != record.Source {
			t.Errorf("record %s = %+v, want %+v", id, loaded, record)
		}
	}
}

func TestFlushSkipsUnloadedKind(t *testing.T) {
	f := newFixture(t)
	if err := f.store.Flush(context.Background(), asset.KindFont); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, err := os.Stat(filepath.Join(f.directory, "font.cbor")); !os.IsNotExist(err) {
		t.Errorf("Flush of unloaded kind wrote a shard (stat err = %v)", err)
	}
}

func TestCorruptedShardRecovery(t *testing.T) {
	directory := t.TempDir()
	shardPath := filepath.Join(directory, "image.cbor")
	garbage := []byte("this is not a metadata shard \x00\xff\xfe")
	if err := os.WriteFile(shardPath, garbage, 0o644); err != nil {
		t.Fatal(err)
	}

	f := newFixtureAt(t, directory)
	records, err := f.store.Load(context.Background(), asset.KindImage)
	if err != nil {
		t.Fatalf("Load of corrupted shard failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records = %d, want empty map", len(records))
	}

	recovery := f.store.Recovery(asset.KindImage)
	if recovery == nil {
		t.Fatal("no recovery reported")
	}
	backup, err := os.ReadFile(recovery.BackupPath)
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}
	if !bytes.Equal(backup, garbage) {
		t.Errorf("backup = %q, want original bytes", backup)
	}

	reset, err := os.ReadFile(shardPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := shard.Decode[asset.Asset](reset, shard.TypeMetadata, asset.KindImage); err != nil {
		t.Errorf("reset shard does not decode: %v", err)
	}
}

func TestUnknownKind(t *testing.T) {
	f := newFixture(t)
	if _, err := f.store.Load(context.Background(), asset.Kind("hologram")); !errors.Is(err, asset.ErrValidationFailed) {
		t.Errorf("Load(unknown kind) = %v, want ValidationFailed", err)
	}
}
