// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetstorage

import (
	"sort"
	"sync"

	"github.com/bureau-foundation/atelier/lib/asset"
)

// Listener receives one event.
type Listener func(asset.Event)

// eventBus is a subscriber list keyed by event type.
type eventBus struct {
	mu          sync.Mutex
	nextID      uint64
	subscribers map[asset.EventType]map[uint64]Listener
}

func newEventBus() *eventBus {
	return &eventBus{subscribers: make(map[asset.EventType]map[uint64]Listener)}
}

func (b *eventBus) subscribe(eventType asset.EventType, listener Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	if b.subscribers[eventType] == nil {
		b.subscribers[eventType] = make(map[uint64]Listener)
	}
	b.subscribers[eventType][id] = listener

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subscribers[eventType], id)
		})
	}
}

// publish delivers event to every listener of its type in
// subscription order. The listener list is snapshotted under the lock
// and dispatched after release, so a listener may subscribe or
// unsubscribe without deadlocking.
func (b *eventBus) publish(event asset.Event) {
	b.mu.Lock()
	registered := b.subscribers[event.Type]
	ids := make([]uint64, 0, len(registered))
	for id := range registered {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	listeners := make([]Listener, len(ids))
	for i, id := range ids {
		listeners[i] = registered[id]
	}
	b.mu.Unlock()

	for _, listener := range listeners {
		listener(asset.Event{Type: event.Type, Asset: event.Asset.Clone()})
	}
}
