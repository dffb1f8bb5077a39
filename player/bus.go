// Package player defines the capability surface consumed by the playback coordinator.
package player

import (
	"sync"

	"golang.org/x/exp/slices"
)

// Bus is a reusable named-event dispatcher for engine implementations. It
// guarantees deterministic delivery in registration order, one-shot listeners
// that auto-unsubscribe before their callback runs, and disposers that remove
// exactly the listener they were minted for.
type Bus struct {
	mu        sync.Mutex
	nextID    int
	listeners map[Event]map[int]*busListener
	closed    bool
}

type busListener struct {
	fn   func(data any)
	once bool
}

// On registers a listener and returns its disposer. Disposers are idempotent.
func (b *Bus) On(event Event, fn func(data any)) (off func()) {
	return b.subscribe(event, fn, false)
}

// Once registers a listener delivered at most one time.
func (b *Bus) Once(event Event, fn func(data any)) (off func()) {
	return b.subscribe(event, fn, true)
}

func (b *Bus) subscribe(event Event, fn func(data any), once bool) (off func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || fn == nil {
		return func() {}
	}

	if b.listeners == nil {
		b.listeners = make(map[Event]map[int]*busListener)
	}
	if b.listeners[event] == nil {
		b.listeners[event] = make(map[int]*busListener)
	}

	id := b.nextID
	b.nextID++
	b.listeners[event][id] = &busListener{fn: fn, once: once}

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if m := b.listeners[event]; m != nil {
			delete(m, id)
		}
	}
}

// Emit dispatches an event to every registered listener, in registration
// order. One-shot listeners are removed before their callback is invoked, so
// re-entrant emissions never deliver them twice.
func (b *Bus) Emit(event Event, data any) {
	b.mu.Lock()
	m := b.listeners[event]
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	fns := make([]func(any), 0, len(ids))
	for _, id := range ids {
		l := m[id]
		if l.once {
			delete(m, id)
		}
		fns = append(fns, l.fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(data)
	}
}

// ListenerCount reports how many listeners are attached to an event.
func (b *Bus) ListenerCount(event Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[event])
}

// Close drops every listener and rejects further subscriptions. Used on
// disposal so that nothing can leak a listener onto a dead player.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.listeners = nil
}
