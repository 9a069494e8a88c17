// Package rules implements the movement rule extension point: a registry of
// named rule callbacks and the bridge that answers the host's packed-buffer
// piece queries with their combined move lists.
package rules

import (
	"sync"

	"github.com/d5h/chess/board"
)

// Func computes the extra destinations a rule grants the queried piece. It
// reads the board only through the view and must not retain it past the
// call.
type Func func(q Query, v board.View) ([]Move, error)

type entry struct {
	id string
	fn Func
}

// Registry maps rule ids to movement callbacks. Registration order is
// invocation order; re-registering an id swaps the callback in place so the
// order stays stable across toggles. An empty registry grants zero moves.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register installs fn under id, replacing any callback already registered
// with the same id.
func (r *Registry) Register(id string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].id == id {
			r.entries[i].fn = fn
			return
		}
	}
	r.entries = append(r.entries, entry{id: id, fn: fn})
}

// Unregister removes the callback for id, if any.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].id == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// snapshot copies the current callbacks in registration order. The bridge
// iterates the snapshot, so a callback may register or unregister rules
// mid-query without deadlocking or perturbing the in-flight iteration.
func (r *Registry) snapshot() []entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entry, len(r.entries))
	copy(out, r.entries)
	return out
}
