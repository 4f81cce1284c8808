// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package groupstore maintains the per-kind group trees that organize
// assets into folders.
//
// A group belongs to exactly one kind and optionally has a parent
// group of the same kind. The parent chain of every group is acyclic
// and ends at a root: [Store.MoveGroupToParent] walks the chain above
// the proposed parent and rejects the move with a Conflict if it
// reaches the group being moved, before changing anything.
//
// Unlike asset metadata, group mutations are not batched. Every
// create, rename, move, and delete writes the kind's group shard
// (<directory>/<kind>.cbor) before returning, with the same
// corruption recovery as the metadata store on load.
//
// Deleting a group with child groups requires the recursive flag.
// A recursive delete first removes every asset in the subtree through
// the asset manager's delete path (which removes the backing files),
// then removes the groups bottom-up. Assets are never re-parented to
// the root. Groups left empty by asset deletions are not pruned; they
// persist until deleted explicitly.
package groupstore
