package screen

import (
	"fmt"
	"sort"

	"gitlab.com/tinyland/lab/rally/pkg/route"
)

type entry struct {
	kind Kind
	init Initializer
}

// Registry resolves route kinds to screen initializers. It is populated at
// start-up and read-only afterwards.
type Registry struct {
	entries map[route.Kind]entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[route.Kind]entry)}
}

// Register binds a route kind to a screen kind and its initializer. It
// returns an error if the route kind is already bound.
func (r *Registry) Register(rk route.Kind, k Kind, init Initializer) error {
	if _, exists := r.entries[rk]; exists {
		return fmt.Errorf("screen: route %s already registered", rk)
	}
	if init == nil {
		return fmt.Errorf("screen: nil initializer for route %s", rk)
	}
	r.entries[rk] = entry{kind: k, init: init}
	return nil
}

// Resolve returns the screen kind and initializer for rt. Routes that need a
// space context but lack one do not resolve.
func (r *Registry) Resolve(rt route.Route) (Kind, Initializer, bool) {
	e, ok := r.entries[rt.Kind]
	if !ok {
		return 0, nil, false
	}
	if rt.Kind != route.Spaces && !rt.HasSpace() {
		return 0, nil, false
	}
	return e.kind, e.init, true
}

// Kinds returns the registered route kinds in ascending order.
func (r *Registry) Kinds() []route.Kind {
	ks := make([]route.Kind, 0, len(r.entries))
	for k := range r.entries {
		ks = append(ks, k)
	}
	sort.Slice(ks, func(i, j int) bool { return ks[i] < ks[j] })
	return ks
}
