// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetstorage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/atelier/lib/asset"
)

// Begin opens a transaction. Transactions nest; only the outermost
// End flushes.
func (s *Storage) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depth++
}

// End closes the innermost transaction. When it was the outermost,
// every dirty kind is flushed before End returns.
func (s *Storage) End(ctx context.Context) error {
	s.mu.Lock()
	if s.depth == 0 {
		s.mu.Unlock()
		return asset.Errorf(asset.CodeConflict, "end transaction", "", "no transaction is open")
	}
	s.depth--
	outermost := s.depth == 0
	s.mu.Unlock()

	if !outermost {
		return nil
	}
	return s.Flush(ctx)
}

// Transaction runs fn inside Begin/End. The flush runs even when fn
// fails; both errors are returned.
func (s *Storage) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.Begin()
	fnErr := fn(ctx)
	endErr := s.End(ctx)
	return errors.Join(fnErr, endErr)
}

// MarkDirty records that kind's metadata changed. Outside a
// transaction it starts a background flush of kind.
func (s *Storage) MarkDirty(kind asset.Kind) {
	s.mu.Lock()
	s.dirty[kind] = struct{}{}
	immediate := s.depth == 0
	s.mu.Unlock()

	if !immediate {
		return
	}
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		if err := s.flushKinds(context.Background(), []asset.Kind{kind}); err != nil {
			s.logger.Error("background flush failed", "kind", string(kind), "error", err)
		}
	}()
}

// Dirty returns the kinds awaiting a flush.
func (s *Storage) Dirty() []asset.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kinds []asset.Kind
	for _, kind := range asset.Kinds {
		if _, dirty := s.dirty[kind]; dirty {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Flush writes every dirty kind's metadata shard, kinds in parallel.
func (s *Storage) Flush(ctx context.Context) error {
	return s.flushKinds(ctx, s.Dirty())
}

// flushKinds clears kinds from the dirty set and writes them. A kind
// whose write fails is marked dirty again so a later flush retries
// it.
func (s *Storage) flushKinds(ctx context.Context, kinds []asset.Kind) error {
	s.mu.Lock()
	var pending []asset.Kind
	for _, kind := range kinds {
		if _, dirty := s.dirty[kind]; dirty {
			delete(s.dirty, kind)
			pending = append(pending, kind)
		}
	}
	s.mu.Unlock()
	if len(pending) == 0 {
		return nil
	}

	var (
		failuresMu sync.Mutex
		failures   []error
	)
	var group errgroup.Group
	for _, kind := range pending {
		group.Go(func() error {
			if err := s.metadata.Flush(ctx, kind); err != nil {
				s.mu.Lock()
				s.dirty[kind] = struct{}{}
				s.mu.Unlock()

				failuresMu.Lock()
				failures = append(failures, fmt.Errorf("flushing %s metadata: %w", kind, err))
				failuresMu.Unlock()
				return err
			}
			s.logger.Debug("metadata flushed", "kind", string(kind))
			return nil
		})
	}
	_ = group.Wait()
	return errors.Join(failures...)
}

// Wait blocks until every background flush started so far has
// finished.
func (s *Storage) Wait() {
	s.background.Wait()
}

// Close flushes outstanding dirty kinds and waits for background
// flushes. It returns ctx's error if ctx ends first.
func (s *Storage) Close(ctx context.Context) error {
	flushErr := s.Flush(ctx)

	done := make(chan struct{})
	go func() {
		s.background.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return errors.Join(flushErr, ctx.Err())
	}

	// A background flush that failed re-marked its kind.
	return errors.Join(flushErr, s.Flush(ctx))
}
