// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metastore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bureau-foundation/atelier/lib/asset"
	"github.com/bureau-foundation/atelier/lib/clock"
	"github.com/bureau-foundation/atelier/lib/fsbridge"
	"github.com/bureau-foundation/atelier/lib/shard"
)

// Options configures a Store.
type Options struct {
	FS fsbridge.FS

	// Directory holds one <kind>.cbor shard per kind.
	Directory string

	Compression shard.Compression
	Hooks       asset.Hooks
	Clock       clock.Clock
	Logger      *slog.Logger
}

// Store is the metadata store for all kinds of one project.
type Store struct {
	hooks  asset.Hooks
	clock  clock.Clock
	logger *slog.Logger

	// mu guards the assets maps and loaded flags of every kind.
	mu    sync.Mutex
	kinds map[asset.Kind]*kindState
}

type kindState struct {
	file *shard.File[asset.Asset]

	// loadMu serializes first loads of this kind.
	loadMu sync.Mutex

	// writeMu orders flushes of this kind.
	writeMu sync.Mutex

	loaded   bool
	assets   map[string]asset.Asset
	recovery *shard.Recovery
}

// New returns a Store. Nothing is read until a kind is first accessed.
func New(options Options) *Store {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := &Store{
		hooks:  options.Hooks,
		clock:  clock.OrReal(options.Clock),
		logger: logger,
		kinds:  make(map[asset.Kind]*kindState, len(asset.Kinds)),
	}
	for _, kind := range asset.Kinds {
		store.kinds[kind] = &kindState{
			file: shard.NewFile[asset.Asset](shard.FileOptions{
				FS:          options.FS,
				Path:        filepath.Join(options.Directory, string(kind)+".cbor"),
				Type:        shard.TypeMetadata,
				Kind:        kind,
				Compression: options.Compression,
				Logger:      logger,
			}),
		}
	}
	return store
}

// ShardPath returns the shard file for kind.
func (s *Store) ShardPath(kind asset.Kind) string {
	if state, exists := s.kinds[kind]; exists {
		return state.file.Path()
	}
	return ""
}

func (s *Store) state(op string, kind asset.Kind) (*kindState, error) {
	state, exists := s.kinds[kind]
	if !exists {
		return nil, asset.Errorf(asset.CodeValidationFailed, op, string(kind), "unknown asset kind %q", kind)
	}
	return state, nil
}

// ensureLoaded reads kind's shard on first use.
func (s *Store) ensureLoaded(ctx context.Context, op string, kind asset.Kind) (*kindState, error) {
	state, err := s.state(op, kind)
	if err != nil {
		return nil, err
	}

	state.loadMu.Lock()
	defer state.loadMu.Unlock()

	s.mu.Lock()
	loaded := state.loaded
	s.mu.Unlock()
	if loaded {
		return state, nil
	}

	records, recovery, err := state.file.Load(ctx)
	if err != nil {
		return nil, asset.Wrap(asset.CodeIOFailure, op, state.file.Path(), err)
	}
	for id, record := range records {
		// Records from older shards may predate the kind field.
		if record.Kind == "" {
			record.Kind = kind
			records[id] = record
		}
	}

	s.mu.Lock()
	state.assets = records
	state.recovery = recovery
	state.loaded = true
	s.mu.Unlock()

	s.logger.Debug("metadata shard loaded", "kind", string(kind), "assets", len(records))
	return state, nil
}

// Load ensures kind is loaded and returns a copy of its map.
func (s *Store) Load(ctx context.Context, kind asset.Kind) (map[string]asset.Asset, error) {
	state, err := s.ensureLoaded(ctx, "load metadata", kind)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMap(state.assets), nil
}

// Recovery returns the corruption recovery performed when kind was
// loaded, or nil if the shard was intact or kind is not yet loaded.
func (s *Store) Recovery(kind asset.Kind) *shard.Recovery {
	state, exists := s.kinds[kind]
	if !exists {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return state.recovery
}

// Get returns a copy of the asset with id.
func (s *Store) Get(ctx context.Context, kind asset.Kind, id string) (asset.Asset, error) {
	state, err := s.ensureLoaded(ctx, "get asset", kind)
	if err != nil {
		return asset.Asset{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record, exists := state.assets[id]
	if !exists {
		return asset.Asset{}, asset.NotFound("get asset", kind, id)
	}
	return record.Clone(), nil
}

// Exists reports whether kind has an asset with id.
func (s *Store) Exists(ctx context.Context, kind asset.Kind, id string) (bool, error) {
	state, err := s.ensureLoaded(ctx, "get asset", kind)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := state.assets[id]
	return exists, nil
}

// List returns copies of every asset of kind, sorted by name.
func (s *Store) List(ctx context.Context, kind asset.Kind) ([]asset.Asset, error) {
	return s.filter(ctx, kind, func(asset.Asset) bool { return true })
}

// ListInGroup returns the assets whose GroupID is groupID. An empty
// groupID lists the assets at the kind's root.
func (s *Store) ListInGroup(ctx context.Context, kind asset.Kind, groupID string) ([]asset.Asset, error) {
	return s.filter(ctx, kind, func(record asset.Asset) bool { return record.GroupID == groupID })
}

func (s *Store) filter(ctx context.Context, kind asset.Kind, keep func(asset.Asset) bool) ([]asset.Asset, error) {
	state, err := s.ensureLoaded(ctx, "list assets", kind)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	result := make([]asset.Asset, 0, len(state.assets))
	for _, record := range state.assets {
		if keep(record) {
			result = append(result, record.Clone())
		}
	}
	s.mu.Unlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// NameTaken reports whether an asset of kind other than exceptID is
// named name.
func (s *Store) NameTaken(ctx context.Context, kind asset.Kind, name, exceptID string) (bool, error) {
	state, err := s.ensureLoaded(ctx, "check name", kind)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return nameTakenLocked(state, name, exceptID), nil
}

// UniqueName returns base if no asset of kind uses it, otherwise the
// first free "base-1", "base-2", ... The answer may be stale by the
// time the caller acts on it; Insert resolves names atomically.
func (s *Store) UniqueName(ctx context.Context, kind asset.Kind, base string) (string, error) {
	state, err := s.ensureLoaded(ctx, "check name", kind)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return uniqueNameLocked(state, base), nil
}

func nameTakenLocked(state *kindState, name, exceptID string) bool {
	for id, record := range state.assets {
		if id != exceptID && record.Name == name {
			return true
		}
	}
	return false
}

func uniqueNameLocked(state *kindState, base string) string {
	taken := make(map[string]struct{}, len(state.assets))
	for _, record := range state.assets {
		taken[record.Name] = struct{}{}
	}
	if _, exists := taken[base]; !exists {
		return base
	}
	for suffix := 1; ; suffix++ {
		candidate := fmt.Sprintf("%s-%d", base, suffix)
		if _, exists := taken[candidate]; !exists {
			return candidate
		}
	}
}

// Insert adds a new record. The record's Name is treated as a base
// name and suffixed if another asset of the kind already uses it; the
// stored record (with its final name and timestamps) is returned.
// Insert marks the kind dirty and publishes an updated event.
func (s *Store) Insert(ctx context.Context, record asset.Asset) (asset.Asset, error) {
	const op = "insert asset"
	if record.ID == "" {
		return asset.Asset{}, asset.Errorf(asset.CodeValidationFailed, op, record.Name, "asset has no id")
	}
	state, err := s.ensureLoaded(ctx, op, record.Kind)
	if err != nil {
		return asset.Asset{}, err
	}

	now := s.clock.Now()
	s.mu.Lock()
	if _, exists := state.assets[record.ID]; exists {
		s.mu.Unlock()
		return asset.Asset{}, asset.Errorf(asset.CodeConflict, op, record.ID, "%s asset id %q already exists", record.Kind, record.ID)
	}
	record = record.Clone()
	record.Name = uniqueNameLocked(state, record.Name)
	record.Tags = asset.NormalizeTags(record.Tags)
	if record.Source == "" {
		record.Source = asset.SourceLocal
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	state.assets[record.ID] = record
	snapshot := record.Clone()
	s.mu.Unlock()

	s.hooks.Dirty(record.Kind)
	s.hooks.Publish(asset.EventUpdated, snapshot)
	return snapshot, nil
}

// update applies mutate to the record under the lock, stamps
// UpdatedAt, marks the kind dirty, and publishes an updated event.
// mutate may reject the change by returning an error; the record is
// then left untouched.
func (s *Store) update(ctx context.Context, op string, kind asset.Kind, id string, mutate func(state *kindState, record *asset.Asset) error) (asset.Asset, error) {
	state, err := s.ensureLoaded(ctx, op, kind)
	if err != nil {
		return asset.Asset{}, err
	}

	now := s.clock.Now()
	s.mu.Lock()
	record, exists := state.assets[id]
	if !exists {
		s.mu.Unlock()
		return asset.Asset{}, asset.NotFound(op, kind, id)
	}
	record = record.Clone()
	if err := mutate(state, &record); err != nil {
		s.mu.Unlock()
		return asset.Asset{}, err
	}
	record.UpdatedAt = now
	state.assets[id] = record
	snapshot := record.Clone()
	s.mu.Unlock()

	s.hooks.Dirty(kind)
	s.hooks.Publish(asset.EventUpdated, snapshot)
	return snapshot, nil
}

// Rename changes an asset's display name. The name must be non-empty
// and unused by any other asset of the kind.
func (s *Store) Rename(ctx context.Context, kind asset.Kind, id, name string) (asset.Asset, error) {
	const op = "rename asset"
	name = strings.TrimSpace(name)
	if name == "" {
		return asset.Asset{}, asset.Errorf(asset.CodeValidationFailed, op, id, "name must not be empty")
	}
	return s.update(ctx, op, kind, id, func(state *kindState, record *asset.Asset) error {
		if nameTakenLocked(state, name, id) {
			return asset.Errorf(asset.CodeConflict, op, id, "another %s asset is already named %q", kind, name)
		}
		record.Name = name
		return nil
	})
}

// UpdateTags replaces an asset's tag set. Tags are normalized.
func (s *Store) UpdateTags(ctx context.Context, kind asset.Kind, id string, tags []string) (asset.Asset, error) {
	return s.update(ctx, "update tags", kind, id, func(_ *kindState, record *asset.Asset) error {
		record.Tags = asset.NormalizeTags(tags)
		return nil
	})
}

// UpdateDescription replaces an asset's description.
func (s *Store) UpdateDescription(ctx context.Context, kind asset.Kind, id, description string) (asset.Asset, error) {
	return s.update(ctx, "update description", kind, id, func(_ *kindState, record *asset.Asset) error {
		record.Description = description
		return nil
	})
}

// SetGroup rewrites an asset's group membership. The caller is
// responsible for checking that groupID exists in the kind.
func (s *Store) SetGroup(ctx context.Context, kind asset.Kind, id, groupID string) (asset.Asset, error) {
	return s.update(ctx, "move asset", kind, id, func(_ *kindState, record *asset.Asset) error {
		record.GroupID = groupID
		return nil
	})
}

// Remove deletes a record from memory, marks the kind dirty, and
// publishes a deleted event carrying the removed record. The backing
// file is not touched.
func (s *Store) Remove(ctx context.Context, kind asset.Kind, id string) (asset.Asset, error) {
	const op = "remove asset"
	state, err := s.ensureLoaded(ctx, op, kind)
	if err != nil {
		return asset.Asset{}, err
	}
	s.mu.Lock()
	record, exists := state.assets[id]
	if !exists {
		s.mu.Unlock()
		return asset.Asset{}, asset.NotFound(op, kind, id)
	}
	delete(state.assets, id)
	s.mu.Unlock()

	s.hooks.Dirty(kind)
	s.hooks.Publish(asset.EventDeleted, record.Clone())
	return record.Clone(), nil
}

// Flush overwrites kind's shard with a snapshot of its map. A kind
// that was never loaded has nothing newer than its shard and is
// skipped.
func (s *Store) Flush(ctx context.Context, kind asset.Kind) error {
	state, err := s.state("flush metadata", kind)
	if err != nil {
		return err
	}

	state.writeMu.Lock()
	defer state.writeMu.Unlock()

	s.mu.Lock()
	if !state.loaded {
		s.mu.Unlock()
		return nil
	}
	snapshot := cloneMap(state.assets)
	s.mu.Unlock()

	if err := state.file.Save(ctx, snapshot); err != nil {
		return asset.Wrap(asset.CodeIOFailure, "flush metadata", state.file.Path(), err)
	}
	s.logger.Debug("metadata shard written", "kind", string(kind), "assets", len(snapshot))
	return nil
}

func cloneMap(records map[string]asset.Asset) map[string]asset.Asset {
	clone := make(map[string]asset.Asset, len(records))
	for id, record := range records {
		clone[id] = record.Clone()
	}
	return clone
}
