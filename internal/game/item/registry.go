package item

import (
	"fmt"
	"sort"
)

// Catalog resolves definition keys. Lookups must be synchronous; a missing
// definition makes placement fail closed.
type Catalog interface {
	Lookup(id string) (*Definition, bool)
}

// Registry is the in-memory Catalog.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry returns an empty Registry.
//
// Postcondition: internal map is initialised.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// LoadRegistry loads every definition in dir into a new Registry.
func LoadRegistry(dir string) (*Registry, error) {
	defs, err := LoadDefinitions(dir)
	if err != nil {
		return nil, err
	}
	reg := NewRegistry()
	for _, d := range defs {
		if err := reg.Register(d); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Register adds d to the registry.
//
// Precondition: d must not be nil.
// Postcondition: Lookup(d.ID) returns (d, true); returns error if d.ID already registered.
func (r *Registry) Register(d *Definition) error {
	if _, exists := r.defs[d.ID]; exists {
		return fmt.Errorf("item: Registry.Register: item ID %q already registered", d.ID)
	}
	r.defs[d.ID] = d
	return nil
}

// Lookup returns the Definition for id and whether it was found.
func (r *Registry) Lookup(id string) (*Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns every registered Definition sorted by ID.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	return len(r.defs)
}
