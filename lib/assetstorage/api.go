// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetstorage

import (
	"context"

	"github.com/bureau-foundation/atelier/lib/asset"
	"github.com/bureau-foundation/atelier/lib/localasset"
	"github.com/bureau-foundation/atelier/lib/reader"
)

// ImportFromPaths imports paths as assets of kind. The whole batch is
// one transaction, so the kind's shard is written once.
func (s *Storage) ImportFromPaths(ctx context.Context, kind asset.Kind, paths []string) ([]localasset.ImportResult, error) {
	var results []localasset.ImportResult
	err := s.Transaction(ctx, func(ctx context.Context) error {
		results = s.assets.ImportFromPaths(ctx, kind, paths)
		return nil
	})
	return results, err
}

// ImportLocalAssets asks the Picker for files and imports them. A
// dismissed picker yields no results and no error.
func (s *Storage) ImportLocalAssets(ctx context.Context, kind asset.Kind) ([]localasset.ImportResult, error) {
	if s.picker == nil {
		return nil, asset.Errorf(asset.CodeUnsupported, "import", string(kind), "no file picker configured")
	}
	paths, err := s.picker.Pick(ctx, kind)
	if err != nil {
		return nil, asset.Wrap(asset.CodeIOFailure, "import", string(kind), err)
	}
	if len(paths) == 0 {
		return nil, nil
	}
	return s.ImportFromPaths(ctx, kind, paths)
}

// GetAsset returns a copy of one asset record.
func (s *Storage) GetAsset(ctx context.Context, kind asset.Kind, id string) (asset.Asset, error) {
	return s.metadata.Get(ctx, kind, id)
}

// ListAssets returns every asset of kind sorted by name.
func (s *Storage) ListAssets(ctx context.Context, kind asset.Kind) ([]asset.Asset, error) {
	return s.metadata.List(ctx, kind)
}

// ListAssetsInGroup returns the assets directly in groupID; an empty
// groupID lists the assets in no group.
func (s *Storage) ListAssetsInGroup(ctx context.Context, kind asset.Kind, groupID string) ([]asset.Asset, error) {
	return s.metadata.ListInGroup(ctx, kind, groupID)
}

// FetchAsset reads an asset's payload and metadata.
func (s *Storage) FetchAsset(ctx context.Context, kind asset.Kind, id string) (*reader.Result, error) {
	record, err := s.metadata.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return s.assets.Fetch(ctx, record)
}

func (s *Storage) RenameAsset(ctx context.Context, kind asset.Kind, id, name string) (asset.Asset, error) {
	return s.metadata.Rename(ctx, kind, id, name)
}

func (s *Storage) UpdateTags(ctx context.Context, kind asset.Kind, id string, tags []string) (asset.Asset, error) {
	return s.metadata.UpdateTags(ctx, kind, id, tags)
}

func (s *Storage) UpdateDescription(ctx context.Context, kind asset.Kind, id, description string) (asset.Asset, error) {
	return s.metadata.UpdateDescription(ctx, kind, id, description)
}

func (s *Storage) DuplicateAsset(ctx context.Context, kind asset.Kind, id string) (asset.Asset, error) {
	return s.assets.Duplicate(ctx, kind, id)
}

func (s *Storage) DeleteAsset(ctx context.Context, kind asset.Kind, id string) (asset.Asset, error) {
	return s.assets.Delete(ctx, kind, id)
}

func (s *Storage) CreateGroup(ctx context.Context, kind asset.Kind, name, parentID string) (asset.Group, error) {
	return s.groups.CreateGroup(ctx, kind, name, parentID)
}

func (s *Storage) RenameGroup(ctx context.Context, kind asset.Kind, id, name string) (asset.Group, error) {
	return s.groups.RenameGroup(ctx, kind, id, name)
}

func (s *Storage) MoveGroupToParent(ctx context.Context, kind asset.Kind, id, parentID string) (asset.Group, error) {
	return s.groups.MoveGroupToParent(ctx, kind, id, parentID)
}

// DeleteGroup removes a group, and with recursive its whole subtree
// and every asset in it. The asset deletions are batched into one
// metadata write.
func (s *Storage) DeleteGroup(ctx context.Context, kind asset.Kind, id string, recursive bool) error {
	return s.Transaction(ctx, func(ctx context.Context) error {
		return s.groups.DeleteGroup(ctx, kind, id, recursive)
	})
}

func (s *Storage) MoveAssetToGroup(ctx context.Context, kind asset.Kind, assetID, groupID string) (asset.Asset, error) {
	return s.groups.MoveAssetToGroup(ctx, kind, assetID, groupID)
}

func (s *Storage) GetGroup(ctx context.Context, kind asset.Kind, id string) (asset.Group, error) {
	return s.groups.Get(ctx, kind, id)
}

func (s *Storage) ListGroups(ctx context.Context, kind asset.Kind) ([]asset.Group, error) {
	return s.groups.List(ctx, kind)
}

// GroupChildren returns parentID's direct child groups; an empty
// parentID returns the root groups.
func (s *Storage) GroupChildren(ctx context.Context, kind asset.Kind, parentID string) ([]asset.Group, error) {
	return s.groups.Children(ctx, kind, parentID)
}

// GroupPath returns the group names from the root to id.
func (s *Storage) GroupPath(ctx context.Context, kind asset.Kind, id string) ([]string, error) {
	return s.groups.Path(ctx, kind, id)
}
