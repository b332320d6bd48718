// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package alerts

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps alert type codes to definitions.
//
// Registration replaces any earlier definition of the same type. After Freeze
// the registry rejects further registration; reads are always safe.
type Registry struct {
	mu     sync.RWMutex
	defs   map[int]Definition
	frozen bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[int]Definition)}
}

// NewDefaultRegistry creates a registry pre-loaded with DefaultCatalog.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	// DefaultCatalog entries are static and valid.
	_ = r.Register(DefaultCatalog()...) //nolint:errcheck // cannot fail on a fresh registry
	return r
}

// Register adds or replaces definitions. Either every definition is applied
// or none is.
func (r *Registry) Register(defs ...Definition) error {
	for i := range defs {
		if defs[i].Type <= 0 {
			return fmt.Errorf("%w: type must be positive, got %d", ErrInvalidDefinition, defs[i].Type)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrRegistryFrozen
	}
	for i := range defs {
		r.defs[defs[i].Type] = defs[i]
	}
	return nil
}

// Freeze stops further registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Get returns the definition for alertType.
func (r *Registry) Get(alertType int) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[alertType]
	return def, ok
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// All returns every definition sorted by type.
func (r *Registry) All() []Definition {
	r.mu.RLock()
	out := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// ListByCategory groups definitions by category, each group sorted by type.
func (r *Registry) ListByCategory() map[string][]Definition {
	out := make(map[string][]Definition)
	for _, def := range r.All() {
		out[def.Category] = append(out[def.Category], def)
	}
	return out
}
