package reconcile

import (
	"context"
	"slices"
)

// Reconciler keeps the rendered list state of one screen in step with a
// stream of snapshots. It is not safe for concurrent use; a single goroutine
// owns it, typically the one running Follow.
type Reconciler[T any, K comparable] struct {
	cb       Callback[T, K]
	surface  Surface[T]
	rendered []T
}

// New creates a reconciler with an empty rendered state. A nil surface
// renders into a ListSurface.
func New[T any, K comparable](cb Callback[T, K], surface Surface[T]) *Reconciler[T, K] {
	if surface == nil {
		surface = &ListSurface[T]{}
	}
	return &Reconciler[T, K]{cb: cb, surface: surface}
}

// Submit diffs snapshot against the rendered state, applies the script to the
// surface and replaces the rendered state with snapshot.
func (r *Reconciler[T, K]) Submit(snapshot []T) Script[T] {
	script := Diff(r.rendered, snapshot, r.cb)
	ApplyTo(r.surface, script)
	r.rendered = slices.Clone(snapshot)
	return script
}

// Rendered returns a copy of the last submitted snapshot.
func (r *Reconciler[T, K]) Rendered() []T { return slices.Clone(r.rendered) }

// Surface returns the surface the reconciler renders into.
func (r *Reconciler[T, K]) Surface() Surface[T] { return r.surface }

// Follow submits every snapshot received from in until in is closed or ctx
// is done. onScript, if set, is called with each script after it has been
// applied. Follow returns ctx.Err() when ctx ends first.
func (r *Reconciler[T, K]) Follow(ctx context.Context, in <-chan []T, onScript func(Script[T])) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-in:
			if !ok {
				return nil
			}
			script := r.Submit(snap)
			if onScript != nil {
				onScript(script)
			}
		}
	}
}
