// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package assetstorage is the single entry point to a project's
// assets. [Storage] wires the metadata store, group store, and local
// asset manager together and adds the write-batching and notification
// layer they share.
//
// # Dirty tracking and flushing
//
// Metadata mutations only change memory and mark their kind dirty.
// Outside a transaction, marking a kind dirty immediately starts a
// background flush of that kind; its errors are logged and
// [Storage.Wait] or [Storage.Close] awaits it. Inside a transaction
// ([Storage.Begin] / [Storage.End], or [Storage.Transaction]) the
// kind is only recorded. Transactions nest; when the outermost one
// ends, every dirty kind is written exactly once, kinds in parallel.
//
// [Storage.Flush] removes kinds from the dirty set before writing
// them, so a mutation that lands during the write re-marks its kind
// and is picked up by the next flush. Writes of one kind are
// serialized and each writes a snapshot taken after the previous
// write finished, so the shard on disk always reflects the latest
// flushed state.
//
// Group-tree mutations bypass the dirty set and write the group shard
// synchronously.
//
// # Events
//
// [Storage.Subscribe] registers a listener for [asset.EventUpdated]
// or [asset.EventDeleted]. Listeners run synchronously on the
// mutating goroutine, after the store's lock is released, and receive
// their own copy of the affected asset.
package assetstorage
