// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package asset

// EventType names a change notification. Subscribers register per
// event type on the storage facade.
type EventType string

const (
	// EventUpdated: an asset's record changed (rename, tags,
	// description, group membership, or a fresh import).
	EventUpdated EventType = "updated"

	// EventDeleted: an asset was removed.
	EventDeleted EventType = "deleted"
)

// Event carries a snapshot of the affected asset. For EventDeleted
// the snapshot is the record as it was immediately before removal.
type Event struct {
	Type  EventType
	Asset Asset
}

// Hooks connects a store to its owner. Stores call MarkDirty after
// every in-memory mutation and Emit after every change a subscriber
// could observe. Either may be nil.
type Hooks struct {
	MarkDirty func(Kind)
	Emit      func(Event)
}

// Dirty invokes MarkDirty if set.
func (h Hooks) Dirty(kind Kind) {
	if h.MarkDirty != nil {
		h.MarkDirty(kind)
	}
}

// Publish invokes Emit if set.
func (h Hooks) Publish(eventType EventType, snapshot Asset) {
	if h.Emit != nil {
		h.Emit(Event{Type: eventType, Asset: snapshot})
	}
}
