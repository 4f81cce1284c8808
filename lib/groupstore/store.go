// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package groupstore

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bureau-foundation/atelier/lib/asset"
	"github.com/bureau-foundation/atelier/lib/clock"
	"github.com/bureau-foundation/atelier/lib/fsbridge"
	"github.com/bureau-foundation/atelier/lib/metastore"
	"github.com/bureau-foundation/atelier/lib/shard"
)

// AssetDeleter removes an asset together with its backing file.
// localasset.Manager implements it.
type AssetDeleter interface {
	Delete(ctx context.Context, kind asset.Kind, id string) (asset.Asset, error)
}

// Options configures a Store.
type Options struct {
	FS fsbridge.FS

	// Directory holds one <kind>.cbor group shard per kind.
	Directory string

	Compression shard.Compression

	// Metadata is consulted for group membership and updated by
	// MoveAssetToGroup.
	Metadata *metastore.Store

	// Assets deletes the assets of groups removed recursively.
	Assets AssetDeleter

	Clock  clock.Clock
	Logger *slog.Logger
}

// Store holds the group trees of all kinds of one project.
type Store struct {
	metadata *metastore.Store
	assets   AssetDeleter
	clock    clock.Clock
	logger   *slog.Logger

	// mu guards every kind's groups map and loaded flag.
	mu    sync.Mutex
	kinds map[asset.Kind]*kindState
}

type kindState struct {
	file *shard.File[asset.Group]

	loadMu  sync.Mutex
	writeMu sync.Mutex

	loaded   bool
	groups   map[string]asset.Group
	recovery *shard.Recovery
}

// New returns a Store. Nothing is read until a kind is first accessed.
func New(options Options) *Store {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := &Store{
		metadata: options.Metadata,
		assets:   options.Assets,
		clock:    clock.OrReal(options.Clock),
		logger:   logger,
		kinds:    make(map[asset.Kind]*kindState, len(asset.Kinds)),
	}
	for _, kind := range asset.Kinds {
		store.kinds[kind] = &kindState{
			file: shard.NewFile[asset.Group](shard.FileOptions{
				FS:          options.FS,
				Path:        filepath.Join(options.Directory, string(kind)+".cbor"),
				Type:        shard.TypeGroups,
				Kind:        kind,
				Compression: options.Compression,
				Logger:      logger,
			}),
		}
	}
	return store
}

// ShardPath returns the group shard file for kind.
func (s *Store) ShardPath(kind asset.Kind) string {
	if state, exists := s.kinds[kind]; exists {
		return state.file.Path()
	}
	return ""
}

func (s *Store) ensureLoaded(ctx context.Context, op string, kind asset.Kind) (*kindState, error) {
	state, exists := s.kinds[kind]
	if !exists {
		return nil, asset.Errorf(asset.CodeValidationFailed, op, string(kind), "unknown asset kind %q", kind)
	}

	state.loadMu.Lock()
	defer state.loadMu.Unlock()

	s.mu.Lock()
	loaded := state.loaded
	s.mu.Unlock()
	if loaded {
		return state, nil
	}

	groups, recovery, err := state.file.Load(ctx)
	if err != nil {
		return nil, asset.Wrap(asset.CodeIOFailure, op, state.file.Path(), err)
	}
	s.mu.Lock()
	state.groups = groups
	state.recovery = recovery
	state.loaded = true
	s.mu.Unlock()
	return state, nil
}

// commit applies change to a copy of kind's groups, writes the copy,
// and installs it only after the write succeeds. A rejected change or
// a failed write leaves the in-memory tree as it was. writeMu is held
// throughout so commits of one kind never interleave.
func (s *Store) commit(ctx context.Context, op string, state *kindState, change func(groups map[string]asset.Group) error) error {
	state.writeMu.Lock()
	defer state.writeMu.Unlock()

	s.mu.Lock()
	next := make(map[string]asset.Group, len(state.groups)+1)
	for id, group := range state.groups {
		next[id] = group
	}
	s.mu.Unlock()

	if err := change(next); err != nil {
		return err
	}
	if err := state.file.Save(ctx, next); err != nil {
		return asset.Wrap(asset.CodeIOFailure, op, state.file.Path(), err)
	}

	s.mu.Lock()
	state.groups = next
	s.mu.Unlock()
	return nil
}

// Load ensures kind is loaded and returns a copy of its group map.
func (s *Store) Load(ctx context.Context, kind asset.Kind) (map[string]asset.Group, error) {
	state, err := s.ensureLoaded(ctx, "load groups", kind)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := make(map[string]asset.Group, len(state.groups))
	for id, group := range state.groups {
		clone[id] = group
	}
	return clone, nil
}

// Recovery returns the corruption recovery performed when kind's
// group shard was loaded, or nil.
func (s *Store) Recovery(kind asset.Kind) *shard.Recovery {
	state, exists := s.kinds[kind]
	if !exists {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return state.recovery
}

// Get returns the group with id.
func (s *Store) Get(ctx context.Context, kind asset.Kind, id string) (asset.Group, error) {
	state, err := s.ensureLoaded(ctx, "get group", kind)
	if err != nil {
		return asset.Group{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	group, exists := state.groups[id]
	if !exists {
		return asset.Group{}, groupNotFound("get group", kind, id)
	}
	return group, nil
}

// List returns every group of kind sorted by name.
func (s *Store) List(ctx context.Context, kind asset.Kind) ([]asset.Group, error) {
	return s.filter(ctx, kind, func(asset.Group) bool { return true })
}

// Children returns the direct child groups of parentID, sorted by
// name. An empty parentID returns the kind's root groups.
func (s *Store) Children(ctx context.Context, kind asset.Kind, parentID string) ([]asset.Group, error) {
	return s.filter(ctx, kind, func(group asset.Group) bool { return group.ParentGroupID == parentID })
}

func (s *Store) filter(ctx context.Context, kind asset.Kind, keep func(asset.Group) bool) ([]asset.Group, error) {
	state, err := s.ensureLoaded(ctx, "list groups", kind)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	var result []asset.Group
	for _, group := range state.groups {
		if keep(group) {
			result = append(result, group)
		}
	}
	s.mu.Unlock()
	sortGroups(result)
	return result, nil
}

// Path returns the names from the root down to and including the
// group with id.
func (s *Store) Path(ctx context.Context, kind asset.Kind, id string) ([]string, error) {
	const op = "group path"
	state, err := s.ensureLoaded(ctx, op, kind)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var names []string
	current := id
	for steps := 0; current != ""; steps++ {
		group, exists := state.groups[current]
		if !exists {
			return nil, groupNotFound(op, kind, current)
		}
		if steps > len(state.groups) {
			return nil, asset.Errorf(asset.CodeConflict, op, id, "parent chain of %s group %q does not terminate", kind, id)
		}
		names = append(names, group.Name)
		current = group.ParentGroupID
	}
	for left, right := 0, len(names)-1; left < right; left, right = left+1, right-1 {
		names[left], names[right] = names[right], names[left]
	}
	return names, nil
}

// CreateGroup adds a group named name under parentID (empty for a root
// group) and persists the kind's group shard.
func (s *Store) CreateGroup(ctx context.Context, kind asset.Kind, name, parentID string) (asset.Group, error) {
	const op = "create group"
	name = strings.TrimSpace(name)
	if name == "" {
		return asset.Group{}, asset.Errorf(asset.CodeValidationFailed, op, parentID, "group name must not be empty")
	}
	state, err := s.ensureLoaded(ctx, op, kind)
	if err != nil {
		return asset.Group{}, err
	}

	now := s.clock.Now()
	group := asset.Group{
		ID:            asset.NewID(),
		Name:          name,
		Kind:          kind,
		ParentGroupID: parentID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = s.commit(ctx, op, state, func(groups map[string]asset.Group) error {
		if parentID != "" {
			if _, exists := groups[parentID]; !exists {
				return groupNotFound(op, kind, parentID)
			}
		}
		if siblingNamed(groups, parentID, name, "") {
			return asset.Errorf(asset.CodeConflict, op, name, "a %s group named %q already exists here", kind, name)
		}
		groups[group.ID] = group
		return nil
	})
	if err != nil {
		return asset.Group{}, err
	}
	s.logger.Info("group created", "kind", string(kind), "group_id", group.ID, "name", name, "parent_id", parentID)
	return group, nil
}

// RenameGroup changes a group's name.
func (s *Store) RenameGroup(ctx context.Context, kind asset.Kind, id, name string) (asset.Group, error) {
	const op = "rename group"
	name = strings.TrimSpace(name)
	if name == "" {
		return asset.Group{}, asset.Errorf(asset.CodeValidationFailed, op, id, "group name must not be empty")
	}
	return s.mutate(ctx, op, kind, id, func(groups map[string]asset.Group, group *asset.Group) error {
		if siblingNamed(groups, group.ParentGroupID, name, id) {
			return asset.Errorf(asset.CodeConflict, op, id, "a %s group named %q already exists here", kind, name)
		}
		group.Name = name
		return nil
	})
}

// MoveGroupToParent reparents a group. newParentID empty moves it to
// the root. Moving a group under itself or under one of its
// descendants is a Conflict and changes nothing.
func (s *Store) MoveGroupToParent(ctx context.Context, kind asset.Kind, id, newParentID string) (asset.Group, error) {
	const op = "move group"
	return s.mutate(ctx, op, kind, id, func(groups map[string]asset.Group, group *asset.Group) error {
		if newParentID != "" {
			if _, exists := groups[newParentID]; !exists {
				return groupNotFound(op, kind, newParentID)
			}
			if newParentID == id {
				return asset.Errorf(asset.CodeConflict, op, id, "cannot move %s group %q into itself", kind, group.Name)
			}
			// Walk up from the candidate parent looking for the group
			// being moved.
			current := newParentID
			for steps := 0; current != ""; steps++ {
				if current == id {
					return asset.Errorf(asset.CodeConflict, op, id,
						"cannot move %s group %q into its descendant %q", kind, group.Name, groups[newParentID].Name)
				}
				if steps > len(groups) {
					return asset.Errorf(asset.CodeConflict, op, newParentID, "parent chain of %s group %q does not terminate", kind, newParentID)
				}
				current = groups[current].ParentGroupID
			}
		}
		if siblingNamed(groups, newParentID, group.Name, id) {
			return asset.Errorf(asset.CodeConflict, op, id, "destination already has a %s group named %q", kind, group.Name)
		}
		group.ParentGroupID = newParentID
		return nil
	})
}

// mutate applies change to one group, stamps UpdatedAt, and commits.
// A rejected change or a failed write leaves state untouched.
func (s *Store) mutate(ctx context.Context, op string, kind asset.Kind, id string, change func(groups map[string]asset.Group, group *asset.Group) error) (asset.Group, error) {
	state, err := s.ensureLoaded(ctx, op, kind)
	if err != nil {
		return asset.Group{}, err
	}
	now := s.clock.Now()
	var updated asset.Group
	err = s.commit(ctx, op, state, func(groups map[string]asset.Group) error {
		group, exists := groups[id]
		if !exists {
			return groupNotFound(op, kind, id)
		}
		if err := change(groups, &group); err != nil {
			return err
		}
		group.UpdatedAt = now
		groups[id] = group
		updated = group
		return nil
	})
	if err != nil {
		return asset.Group{}, err
	}
	return updated, nil
}

// DeleteGroup removes a group. Without recursive, a group that has
// child groups is rejected with a Conflict naming the child count;
// assets directly in a childless group are deleted with it. With
// recursive, every asset in the subtree is deleted through the asset
// manager first, then the groups bottom-up.
func (s *Store) DeleteGroup(ctx context.Context, kind asset.Kind, id string, recursive bool) error {
	const op = "delete group"
	state, err := s.ensureLoaded(ctx, op, kind)
	if err != nil {
		return err
	}

	s.mu.Lock()
	group, exists := state.groups[id]
	if !exists {
		s.mu.Unlock()
		return groupNotFound(op, kind, id)
	}
	childCount := 0
	for _, candidate := range state.groups {
		if candidate.ParentGroupID == id {
			childCount++
		}
	}
	if childCount > 0 && !recursive {
		s.mu.Unlock()
		return asset.Errorf(asset.CodeConflict, op, id,
			"%s group %q has %d child group(s); delete recursively to remove them", kind, group.Name, childCount)
	}
	// Post-order: descendants before their parents.
	order := postOrder(state.groups, id)
	s.mu.Unlock()

	deletedAssets := 0
	for _, groupID := range order {
		members, err := s.metadata.ListInGroup(ctx, kind, groupID)
		if err != nil {
			return err
		}
		for _, member := range members {
			if _, err := s.assets.Delete(ctx, kind, member.ID); err != nil {
				return asset.Wrap(asset.CodeIOFailure, op, id, err)
			}
			deletedAssets++
		}
	}

	err = s.commit(ctx, op, state, func(groups map[string]asset.Group) error {
		for _, groupID := range order {
			delete(groups, groupID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("group deleted",
		"kind", string(kind),
		"group_id", id,
		"name", group.Name,
		"groups_removed", len(order),
		"assets_removed", deletedAssets,
	)
	return nil
}

// postOrder lists id's subtree with every group after all of its
// descendants. Caller holds s.mu.
func postOrder(groups map[string]asset.Group, id string) []string {
	children := make(map[string][]string)
	for _, group := range groups {
		if group.ParentGroupID != "" {
			children[group.ParentGroupID] = append(children[group.ParentGroupID], group.ID)
		}
	}
	for parent := range children {
		sort.Strings(children[parent])
	}

	var order []string
	visited := make(map[string]bool)
	var visit func(string)
	visit = func(current string) {
		if visited[current] {
			return
		}
		visited[current] = true
		for _, child := range children[current] {
			visit(child)
		}
		order = append(order, current)
	}
	visit(id)
	return order
}

// MoveAssetToGroup sets an asset's group. groupID empty moves the
// asset to the kind's root; otherwise the group must exist in the
// asset's kind.
func (s *Store) MoveAssetToGroup(ctx context.Context, kind asset.Kind, assetID, groupID string) (asset.Asset, error) {
	const op = "move asset"
	if groupID != "" {
		state, err := s.ensureLoaded(ctx, op, kind)
		if err != nil {
			return asset.Asset{}, err
		}
		s.mu.Lock()
		_, exists := state.groups[groupID]
		s.mu.Unlock()
		if !exists {
			return asset.Asset{}, groupNotFound(op, kind, groupID)
		}
	}
	return s.metadata.SetGroup(ctx, kind, assetID, groupID)
}

// siblingNamed reports whether a group other than exceptID under
// parentID is named name.
func siblingNamed(groups map[string]asset.Group, parentID, name, exceptID string) bool {
	for id, group := range groups {
		if id != exceptID && group.ParentGroupID == parentID && group.Name == name {
			return true
		}
	}
	return false
}

func sortGroups(groups []asset.Group) {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Name != groups[j].Name {
			return groups[i].Name < groups[j].Name
		}
		return groups[i].ID < groups[j].ID
	})
}

func groupNotFound(op string, kind asset.Kind, id string) *asset.Error {
	return asset.Errorf(asset.CodeNotFound, op, id, "no %s group with id %q", kind, id)
}
