// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package localasset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/bureau-foundation/atelier/lib/asset"
	"github.com/bureau-foundation/atelier/lib/fsbridge"
	"github.com/bureau-foundation/atelier/lib/metastore"
	"github.com/bureau-foundation/atelier/lib/reader"
	"github.com/bureau-foundation/atelier/lib/validate"
)

// Options configures a Manager.
type Options struct {
	FS fsbridge.FS

	// Directory is the assets directory payloads are stored under.
	Directory string

	Metadata *metastore.Store

	// Validator defaults to validate.Default().
	Validator *validate.Validator

	// Readers defaults to reader.NewTable(FS).
	Readers *reader.Table

	Logger *slog.Logger
}

// Manager imports, reads, duplicates, and deletes local assets.
type Manager struct {
	fs        fsbridge.FS
	directory string
	metadata  *metastore.Store
	validator *validate.Validator
	readers   *reader.Table
	logger    *slog.Logger
}

// New returns a Manager.
func New(options Options) *Manager {
	manager := &Manager{
		fs:        options.FS,
		directory: options.Directory,
		metadata:  options.Metadata,
		validator: options.Validator,
		readers:   options.Readers,
		logger:    options.Logger,
	}
	if manager.validator == nil {
		manager.validator = validate.Default()
	}
	if manager.readers == nil {
		manager.readers = reader.NewTable(options.FS)
	}
	if manager.logger == nil {
		manager.logger = slog.Default()
	}
	return manager
}

// StoragePath returns the sharded location of id's payload relative
// to the assets directory.
func StoragePath(id string) string {
	if len(id) < 5 {
		return id
	}
	return filepath.Join(id[0:2], id[2:4], id[4:])
}

// Path returns the absolute location of id's payload.
func (m *Manager) Path(id string) string {
	return filepath.Join(m.directory, StoragePath(id))
}

// ImportResult is the outcome of importing one path. Exactly one of
// Asset and Err is set.
type ImportResult struct {
	Path  string
	Asset *asset.Asset
	Err   error
}

// OK reports whether the path was imported.
func (r ImportResult) OK() bool { return r.Err == nil }

// ImportFromPaths imports each path as an asset of kind. A failure on
// one path is recorded in its result and the batch continues. If ctx
// is canceled, the remaining paths fail with the context error.
func (m *Manager) ImportFromPaths(ctx context.Context, kind asset.Kind, paths []string) []ImportResult {
	results := make([]ImportResult, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			results = append(results, ImportResult{Path: path, Err: asset.Wrap(asset.CodeIOFailure, "import", path, err)})
			continue
		}
		record, err := m.importOne(ctx, kind, path)
		if err != nil {
			m.logger.Warn("import rejected", "kind", string(kind), "path", path, "error", err)
			results = append(results, ImportResult{Path: path, Err: err})
			continue
		}
		results = append(results, ImportResult{Path: path, Asset: &record})
	}
	return results
}

func (m *Manager) importOne(ctx context.Context, kind asset.Kind, path string) (asset.Asset, error) {
	const op = "import"
	if !kind.Valid() {
		return asset.Asset{}, asset.Errorf(asset.CodeValidationFailed, op, path, "unknown asset kind %q", kind)
	}

	raw, err := m.fs.ReadFile(ctx, path)
	if err != nil {
		return asset.Asset{}, asset.Wrap(asset.CodeIOFailure, op, path, err)
	}
	if err := m.validator.Validate(kind, path, raw); err != nil {
		return asset.Asset{}, err
	}

	id := asset.NewID()
	destination := m.Path(id)
	if err := m.fs.Copy(ctx, path, destination); err != nil {
		return asset.Asset{}, asset.Wrap(asset.CodeIOFailure, op, path, fmt.Errorf("copying into storage: %w", err))
	}

	record, err := m.metadata.Insert(ctx, asset.Asset{
		ID:           id,
		Kind:         kind,
		Name:         asset.BaseName(path),
		ContentHash:  m.hash(ctx, destination),
		Source:       asset.SourceLocal,
		OriginalPath: path,
		Size:         int64(len(raw)),
	})
	if err != nil {
		m.discard(ctx, destination)
		return asset.Asset{}, err
	}

	m.logger.Info("asset imported",
		"kind", string(kind),
		"asset_id", record.ID,
		"name", record.Name,
		"path", path,
		"size", record.Size,
	)
	return record, nil
}

// hash returns the content hash of path, or "" when hashing fails.
func (m *Manager) hash(ctx context.Context, path string) string {
	digest, err := m.fs.Hash(ctx, path)
	if err != nil {
		m.logger.Warn("content hash unavailable", "path", path, "error", err)
		return ""
	}
	return digest
}

// discard removes a payload written for an asset that never made it
// into the metadata.
func (m *Manager) discard(ctx context.Context, path string) {
	if err := m.fs.Remove(ctx, path); err != nil && !fsbridge.IsNotFound(err) {
		m.logger.Warn("orphaned payload left behind", "path", path, "error", err)
	}
}

// Fetch reads record's payload through its kind's reader, using the
// extension the asset was imported with. Remote assets are
// Unsupported.
func (m *Manager) Fetch(ctx context.Context, record asset.Asset) (*reader.Result, error) {
	const op = "fetch"
	if record.Source == asset.SourceRemote {
		return nil, asset.Errorf(asset.CodeUnsupported, op, record.ID, "asset %q has a remote source", record.Name)
	}
	return m.readers.ReadAs(ctx, record.Kind, m.Path(record.ID), validate.Extension(record.OriginalPath))
}

// Delete removes the asset's payload and its metadata record. A
// payload that is already gone is logged and the record is removed
// anyway; any other filesystem failure leaves the record in place.
func (m *Manager) Delete(ctx context.Context, kind asset.Kind, id string) (asset.Asset, error) {
	const op = "delete"
	record, err := m.metadata.Get(ctx, kind, id)
	if err != nil {
		return asset.Asset{}, err
	}

	if record.Source != asset.SourceRemote {
		path := m.Path(id)
		if err := m.fs.Remove(ctx, path); err != nil {
			if !fsbridge.IsNotFound(err) {
				return asset.Asset{}, asset.Wrap(asset.CodeIOFailure, op, id, err)
			}
			m.logger.Warn("asset payload already missing",
				"kind", string(kind),
				"asset_id", id,
				"path", path,
			)
		}
	}

	removed, err := m.metadata.Remove(ctx, kind, id)
	if err != nil {
		return asset.Asset{}, err
	}
	m.logger.Info("asset deleted", "kind", string(kind), "asset_id", id, "name", removed.Name)
	return removed, nil
}

// Duplicate copies an asset's payload under a new id and inserts a
// record with a unique name derived from the original. Tags and
// description carry over; group membership does not.
func (m *Manager) Duplicate(ctx context.Context, kind asset.Kind, id string) (asset.Asset, error) {
	const op = "duplicate"
	source, err := m.metadata.Get(ctx, kind, id)
	if err != nil {
		return asset.Asset{}, err
	}
	if source.Source == asset.SourceRemote {
		return asset.Asset{}, asset.Errorf(asset.CodeUnsupported, op, id, "asset %q has a remote source", source.Name)
	}

	newID := asset.NewID()
	destination := m.Path(newID)
	if err := m.fs.Copy(ctx, m.Path(id), destination); err != nil {
		return asset.Asset{}, asset.Wrap(asset.CodeIOFailure, op, id, err)
	}

	contentHash := m.hash(ctx, destination)
	if contentHash == "" {
		contentHash = source.ContentHash
	}

	record, err := m.metadata.Insert(ctx, asset.Asset{
		ID:           newID,
		Kind:         kind,
		Name:         source.Name,
		ContentHash:  contentHash,
		Source:       asset.SourceLocal,
		Tags:         source.Tags,
		Description:  source.Description,
		OriginalPath: source.OriginalPath,
		Size:         source.Size,
	})
	if err != nil {
		m.discard(ctx, destination)
		return asset.Asset{}, err
	}
	m.logger.Info("asset duplicated",
		"kind", string(kind),
		"asset_id", record.ID,
		"source_id", id,
		"name", record.Name,
	)
	return record, nil
}
