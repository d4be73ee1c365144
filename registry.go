package minimax

import (
	"fmt"
	"slices"
)

// Registry collects descriptors before they are built into a Provider.
//
// A Registry is meant to be filled from a single goroutine. Build seals it:
// from then on it is read-only and owned by the Provider.
type Registry struct {
	descriptors map[Identifier][]*Descriptor
	order       []Identifier
	size        int
	sealed      bool
}

func NewRegistry() *Registry {
	return &Registry{
		descriptors: make(map[Identifier][]*Descriptor),
	}
}

// Register appends d to the descriptors of its identifier and returns the
// registry for chaining. Several descriptors may share an identifier.
//
// Register panics if d is nil or if the registry was already built.
func (r *Registry) Register(d *Descriptor) *Registry {
	if d == nil {
		panic("minimax: cannot register a nil descriptor")
	}
	if r.sealed {
		panic(fmt.Sprintf("minimax: cannot register %s, %v", d, ErrRegistryConsumed))
	}

	existing, found := r.descriptors[d.identifier]
	if !found {
		r.order = append(r.order, d.identifier)
	}
	r.descriptors[d.identifier] = append(existing, d)
	r.size++

	return r
}

// Lookup returns the descriptors registered under id, in registration order.
// The returned slice must not be modified.
func (r *Registry) Lookup(id Identifier) []*Descriptor {
	return slices.Clip(r.descriptors[id])
}

// Identifiers returns every known identifier in order of first registration.
func (r *Registry) Identifiers() []Identifier {
	return slices.Clone(r.order)
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	return r.size
}

func (r *Registry) seal() error {
	if r.sealed {
		return ErrRegistryConsumed
	}
	r.sealed = true
	return nil
}
