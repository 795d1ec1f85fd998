// Package hook provides typed extension points for the forum engine.
//
// The engine passes read results through Filter chains before
// returning them, and announces lifecycle moments (counter updates,
// notifications) through Events. Unlike a string-keyed event bus,
// every hook has a concrete payload type checked at compile time;
// callbacks run in registration order.
package hook

import (
	"context"
	"sync"
)

// FilterFunc transforms a value of type T. Returning the input
// unchanged is the identity behavior.
type FilterFunc[T any] func(ctx context.Context, v T) T

// Filter is an ordered chain of callbacks applied to a value before
// the engine returns it to the caller.
type Filter[T any] struct {
	mu  sync.RWMutex
	fns []FilterFunc[T]
}

// Use appends fn to the chain. Nil callbacks are ignored.
func (f *Filter[T]) Use(fn FilterFunc[T]) {
	if fn == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fns = append(f.fns, fn)
}

// Apply runs the chain over v in registration order.
// With no callbacks registered it returns v unchanged.
func (f *Filter[T]) Apply(ctx context.Context, v T) T {
	f.mu.RLock()
	fns := f.fns
	f.mu.RUnlock()

	for _, fn := range fns {
		v = fn(ctx, v)
	}
	return v
}

// EventFunc observes a payload of type T. Return values are not used;
// events announce, they do not veto.
type EventFunc[T any] func(ctx context.Context, v T)

// Event is an ordered list of observers fired around a lifecycle
// moment.
type Event[T any] struct {
	mu  sync.RWMutex
	fns []EventFunc[T]
}

// Subscribe appends fn to the observer list. Nil callbacks are ignored.
func (e *Event[T]) Subscribe(fn EventFunc[T]) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fns = append(e.fns, fn)
}

// Fire invokes every observer with v, in registration order.
func (e *Event[T]) Fire(ctx context.Context, v T) {
	e.mu.RLock()
	fns := e.fns
	e.mu.RUnlock()

	for _, fn := range fns {
		fn(ctx, v)
	}
}
