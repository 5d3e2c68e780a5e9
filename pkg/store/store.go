// Package store defines the persistence contracts of the schedule pipeline.
// Backends must provide identical ordering and filtering semantics so the
// live queries built on top of them behave the same on every backend.
package store

import "sync"

// InvalidationTracker fans out table change notifications to observers.
// Signals are coalesced: an observer that has not consumed the previous
// signal receives at most one pending notification.
type InvalidationTracker struct {
	mu        sync.Mutex
	nextID    uint64
	observers map[uint64]*observer
}

type observer struct {
	tables map[string]struct{}
	ch     chan struct{}
}

// NewInvalidationTracker creates an empty tracker.
func NewInvalidationTracker() *InvalidationTracker {
	return &InvalidationTracker{observers: make(map[uint64]*observer)}
}

// Observe registers interest in the given tables. The returned channel
// receives a signal after each change to any of them until stop is called.
// Observing no tables matches every notification.
func (t *InvalidationTracker) Observe(tables ...string) (<-chan struct{}, func()) {
	o := &observer{ch: make(chan struct{}, 1)}
	if len(tables) > 0 {
		o.tables = make(map[string]struct{}, len(tables))
		for _, tb := range tables {
			o.tables[tb] = struct{}{}
		}
	}
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.observers[id] = o
	t.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.observers, id)
			t.mu.Unlock()
		})
	}
	return o.ch, stop
}

// Notify signals every observer of the given tables without blocking.
func (t *InvalidationTracker) Notify(tables ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, o := range t.observers {
		if !o.matches(tables) {
			continue
		}
		select {
		case o.ch <- struct{}{}:
		default:
		}
	}
}

// Len returns the number of registered observers.
func (t *InvalidationTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.observers)
}

func (o *observer) matches(tables []string) bool {
	if o.tables == nil || len(tables) == 0 {
		return true
	}
	for _, tb := range tables {
		if _, ok := o.tables[tb]; ok {
			return true
		}
	}
	return false
}
