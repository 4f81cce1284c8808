// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for record
// timestamps.
//
// Stores stamp CreatedAt and UpdatedAt through a Clock instead of
// calling time.Now directly. In production, Real() provides the
// standard library behavior. In tests, Fake() provides a clock that
// moves only when told to, so timestamps in assertions are exact:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	store := metastore.New(metastore.Options{Clock: c, ...})
//	// ... import an asset ...
//	c.Advance(time.Minute)
//	// ... rename it; UpdatedAt is exactly one minute after CreatedAt ...
package clock
