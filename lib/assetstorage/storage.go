// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetstorage

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/bureau-foundation/atelier/lib/asset"
	"github.com/bureau-foundation/atelier/lib/clock"
	"github.com/bureau-foundation/atelier/lib/fsbridge"
	"github.com/bureau-foundation/atelier/lib/groupstore"
	"github.com/bureau-foundation/atelier/lib/localasset"
	"github.com/bureau-foundation/atelier/lib/metastore"
	"github.com/bureau-foundation/atelier/lib/reader"
	"github.com/bureau-foundation/atelier/lib/shard"
	"github.com/bureau-foundation/atelier/lib/validate"
)

// Default directory names under the project root.
const (
	DefaultMetadataDir = "metadata"
	DefaultGroupsDir   = "groups"
	DefaultAssetsDir   = "assets"
)

// Picker asks a person to choose files to import. It returns absolute
// paths, or none if the choice was dismissed.
type Picker interface {
	Pick(ctx context.Context, kind asset.Kind) ([]string, error)
}

// Options configures a Storage.
type Options struct {
	// Root is the project directory. Relative directory names below
	// are resolved against it.
	Root string

	MetadataDir string
	GroupsDir   string
	AssetsDir   string

	// FS defaults to fsbridge.NewLocal().
	FS fsbridge.FS

	Compression shard.Compression

	// Validator defaults to validate.Default().
	Validator *validate.Validator

	Picker Picker
	Clock  clock.Clock
	Logger *slog.Logger
}

// Storage is the project's asset engine.
type Storage struct {
	metadata *metastore.Store
	groups   *groupstore.Store
	assets   *localasset.Manager
	picker   Picker
	logger   *slog.Logger
	events   *eventBus

	// mu guards depth and dirty.
	mu    sync.Mutex
	depth int
	dirty map[asset.Kind]struct{}

	background sync.WaitGroup
}

// New returns a Storage rooted at options.Root. No file is touched
// until a kind is first used.
func New(options Options) *Storage {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	filesystem := options.FS
	if filesystem == nil {
		filesystem = fsbridge.NewLocal()
	}

	storage := &Storage{
		picker: options.Picker,
		logger: logger,
		events: newEventBus(),
		dirty:  make(map[asset.Kind]struct{}),
	}
	storage.metadata = metastore.New(metastore.Options{
		FS:          filesystem,
		Directory:   resolve(options.Root, options.MetadataDir, DefaultMetadataDir),
		Compression: options.Compression,
		Hooks: asset.Hooks{
			MarkDirty: storage.MarkDirty,
			Emit:      storage.events.publish,
		},
		Clock:  options.Clock,
		Logger: logger,
	})
	storage.assets = localasset.New(localasset.Options{
		FS:        filesystem,
		Directory: resolve(options.Root, options.AssetsDir, DefaultAssetsDir),
		Metadata:  storage.metadata,
		Validator: options.Validator,
		Readers:   reader.NewTable(filesystem),
		Logger:    logger,
	})
	storage.groups = groupstore.New(groupstore.Options{
		FS:          filesystem,
		Directory:   resolve(options.Root, options.GroupsDir, DefaultGroupsDir),
		Compression: options.Compression,
		Metadata:    storage.metadata,
		Assets:      storage.assets,
		Clock:       options.Clock,
		Logger:      logger,
	})
	return storage
}

func resolve(root, directory, fallback string) string {
	if directory == "" {
		directory = fallback
	}
	if filepath.IsAbs(directory) {
		return directory
	}
	return filepath.Join(root, directory)
}

// Subscribe registers listener for eventType and returns a function
// that unregisters it. The returned function is safe to call more
// than once.
func (s *Storage) Subscribe(eventType asset.EventType, listener Listener) (unsubscribe func()) {
	return s.events.subscribe(eventType, listener)
}

// MetadataShardPath returns kind's metadata shard file.
func (s *Storage) MetadataShardPath(kind asset.Kind) string { return s.metadata.ShardPath(kind) }

// GroupShardPath returns kind's group shard file.
func (s *Storage) GroupShardPath(kind asset.Kind) string { return s.groups.ShardPath(kind) }

// AssetPath returns the stored payload location of an asset.
func (s *Storage) AssetPath(id string) string { return s.assets.Path(id) }

// Recoveries loads kind and returns the corruption recoveries its
// metadata and group shards needed, if any.
func (s *Storage) Recoveries(ctx context.Context, kind asset.Kind) ([]shard.Recovery, error) {
	if _, err := s.metadata.Load(ctx, kind); err != nil {
		return nil, err
	}
	if _, err := s.groups.Load(ctx, kind); err != nil {
		return nil, err
	}
	var recoveries []shard.Recovery
	for _, recovery := range []*shard.Recovery{s.metadata.Recovery(kind), s.groups.Recovery(kind)} {
		if recovery != nil {
			recoveries = append(recoveries, *recovery)
		}
	}
	return recoveries, nil
}
