// SPDX-License-Identifier: MPL-2.0

package activate

import (
	"slices"
	"sync"
)

// Registry is the capability set of the current process. The zero value is
// not usable; create one with NewRegistry.
type Registry struct {
	mu      sync.RWMutex
	symbols map[string]struct{}
	active  []string
	seen    map[string]struct{}
}

// NewRegistry returns a Registry that already provides symbols. Hosts seed it
// with the capabilities compiled into the binary.
func NewRegistry(symbols ...string) *Registry {
	r := &Registry{
		symbols: make(map[string]struct{}, len(symbols)),
		seen:    make(map[string]struct{}),
	}
	r.Provide(symbols...)
	return r
}

// Probe reports whether symbol is resolvable. It has no side effects.
func (r *Registry) Probe(symbol string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.symbols[symbol]
	return ok
}

// Provide adds symbols to the capability set. Empty names are ignored.
func (r *Registry) Provide(symbols ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range symbols {
		if s != "" {
			r.symbols[s] = struct{}{}
		}
	}
}

// Symbols returns the provided symbols, sorted.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.symbols))
	for s := range r.symbols {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// Active returns the activated artifact paths in activation order.
func (r *Registry) Active() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.active)
}

// IsActive reports whether the artifact at path was activated.
func (r *Registry) IsActive(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.seen[path]
	return ok
}

// commit records path as active together with the symbols it provides. It
// returns false when path was already active.
func (r *Registry) commit(path string, symbols []string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[path]; ok {
		return false
	}
	r.seen[path] = struct{}{}
	r.active = append(r.active, path)
	for _, s := range symbols {
		if s != "" {
			r.symbols[s] = struct{}{}
		}
	}
	return true
}
