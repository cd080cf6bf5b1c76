package launcher

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

var logger = log.New(log.Writer(), "[LAUNCHER] ", log.LstdFlags|log.Lmicroseconds)

// Registry holds the current target list. Every sync replaces the list
// wholesale under one lock, so readers see either the old or the new list.
type Registry struct {
	mu       sync.Mutex
	targets  []Target
	poisoned bool

	subsMu sync.Mutex
	subs   []func([]Target)

	newID func() string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		targets: []Target{},
		newID:   uuid.NewString,
	}
}

// acquire locks the registry. A writer that panicked while holding the lock
// leaves it poisoned; the next holder drops the poison and keeps serving the
// last list that was fully stored.
func (r *Registry) acquire() {
	r.mu.Lock()
	if r.poisoned {
		logger.Printf("Warning: registry lock was poisoned, recovering last-known-good state (%d targets)", len(r.targets))
		r.poisoned = false
	}
}

// write runs fn under the lock and stores its result. If fn panics the stored
// list is untouched and the lock is marked poisoned.
func (r *Registry) write(fn func(current []Target) []Target) []Target {
	r.acquire()
	stored := false
	defer func() {
		if !stored {
			r.poisoned = true
		}
		r.mu.Unlock()
	}()

	next := fn(r.targets)
	r.targets = next
	stored = true
	return cloneTargets(next)
}

// Sync replaces the registry with targets and returns the stored copy.
// Targets without an id get a fresh one; a repeated id is kept by the first
// target and the later one is given a fresh id.
func (r *Registry) Sync(targets []Target) []Target {
	stored := r.write(func(_ []Target) []Target {
		return r.normalize(targets)
	})
	logger.Printf("Synced %d targets", len(stored))

	r.notify(stored)
	return stored
}

func (r *Registry) normalize(targets []Target) []Target {
	out := make([]Target, 0, len(targets))
	seen := make(map[string]bool, len(targets))

	for _, t := range targets {
		t = t.Clone()
		if t.ID == "" {
			t.ID = r.newID()
		} else if seen[t.ID] {
			fresh := r.newID()
			logger.Printf("Warning: duplicate target id %q on %q, assigned %s", t.ID, t.Name, fresh)
			t.ID = fresh
		}
		if t.Variant == "" {
			t.Variant = VariantApp
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}

// Read returns a snapshot of the current targets.
func (r *Registry) Read() []Target {
	r.acquire()
	defer r.mu.Unlock()
	return cloneTargets(r.targets)
}

// ByID returns the target with the given id.
func (r *Registry) ByID(id string) (Target, bool) {
	r.acquire()
	defer r.mu.Unlock()

	for _, t := range r.targets {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return Target{}, false
}

// Lookup returns the targets whose name or alias equals query, in registry
// order.
func (r *Registry) Lookup(query string) []Target {
	r.acquire()
	defer r.mu.Unlock()

	var out []Target
	for _, t := range r.targets {
		if t.Matches(query) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Subscribe registers fn to run after every Sync with the stored list.
func (r *Registry) Subscribe(fn func([]Target)) {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	r.subs = append(r.subs, fn)
}

func (r *Registry) notify(targets []Target) {
	r.subsMu.Lock()
	subs := append([]func([]Target){}, r.subs...)
	r.subsMu.Unlock()

	for _, fn := range subs {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Printf("Registry subscriber panicked: %v", rec)
				}
			}()
			fn(cloneTargets(targets))
		}()
	}
}
