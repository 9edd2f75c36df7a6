package filter

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// ErrFilterNotFound is returned when a name does not resolve to a filter.
var ErrFilterNotFound = errors.New("filter not found")

// Registry maps filter names to their definitions.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

func NewRegistry() *Registry {
	return &Registry{defs: map[string]Definition{}}
}

// Default holds the built-in filters.
var Default = NewRegistry()

func (r *Registry) Register(def Definition) error {
	if def.Name == "" || def.New == nil {
		return errors.New("filter definition needs a name and a factory")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[def.Name]; ok {
		return fmt.Errorf("filter %q already registered", def.Name)
	}
	r.defs[def.Name] = def
	return nil
}

// MustRegister is Register for init-time registration.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(name string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrFilterNotFound, name)
	}
	return def, nil
}

// List returns all definitions sorted by name.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.defs))
	for _, name := range slices.Sorted(maps.Keys(r.defs)) {
		out = append(out, r.defs[name])
	}
	return out
}
