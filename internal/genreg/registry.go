package genreg

import (
	"sync"

	"github.com/voxelterra/server/internal/voxel"
)

// regionRecipe pairs a registered region factory with the height bounds
// and default voxel the embedding host supplied at registration time.
type regionRecipe struct {
	factory      RegionGeneratorFactory
	minHeight    int64
	maxHeight    int64
	defaultVoxel voxel.BlockId
	hasDefault   bool
}

type brushRecipe struct {
	factory BrushGeneratorFactory
}

// Registry maps recipe names to factories, separately for region and
// brush generators. It is read-mostly: lookups happen once per request and
// may overlap freely; registration is rare and serialized.
//
// Duplicate registration of the same name replaces the prior binding
// without warning — this mirrors the upstream behavior and is pinned by
// TestRegisterRegionFactoryReplacesExisting.
type Registry struct {
	mu      sync.RWMutex
	regions map[string]regionRecipe
	brushes map[string]brushRecipe
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		regions: make(map[string]regionRecipe),
		brushes: make(map[string]brushRecipe),
	}
}

// RegisterRecipe registers (or replaces) a named region generator recipe,
// stashing the height bounds and default voxel the embedding host
// configured for it. This is an in-process API called by the host before
// the listener starts accepting client connections — it is never driven
// over the wire, since the client-facing protocol has no registration
// packet (spec.md's packet table is authoritative for the wire).
func (r *Registry) RegisterRecipe(name string, minHeight, maxHeight int64, defaultVoxel voxel.BlockId, factory RegionGeneratorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regions[name] = regionRecipe{
		factory:      factory,
		minHeight:    minHeight,
		maxHeight:    maxHeight,
		defaultVoxel: defaultVoxel,
		hasDefault:   true,
	}
}

// RegisterBrushRecipe registers (or replaces) a named brush generator
// recipe. Brush recipes have no height bounds or default voxel: the output
// extent is generator-defined.
func (r *Registry) RegisterBrushRecipe(name string, factory BrushGeneratorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.brushes[name] = brushRecipe{factory: factory}
}

// LookupRegion returns the named region recipe's factory and registered
// bounds/default voxel. The bool is false when no recipe is registered
// under that name.
func (r *Registry) LookupRegion(name string) (factory RegionGeneratorFactory, minHeight, maxHeight int64, defaultVoxel voxel.BlockId, hasDefault bool, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.regions[name]
	if !ok {
		return nil, 0, 0, 0, false, false
	}
	return rec.factory, rec.minHeight, rec.maxHeight, rec.defaultVoxel, rec.hasDefault, true
}

// LookupBrush returns the named brush recipe's factory.
func (r *Registry) LookupBrush(name string) (BrushGeneratorFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.brushes[name]
	if !ok {
		return nil, false
	}
	return rec.factory, true
}

// RegionNames returns every registered region recipe name, in no
// particular order.
func (r *Registry) RegionNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.regions))
	for name := range r.regions {
		names = append(names, name)
	}
	return names
}

// BrushNames returns every registered brush recipe name, in no particular
// order.
func (r *Registry) BrushNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.brushes))
	for name := range r.brushes {
		names = append(names, name)
	}
	return names
}

// AllNames returns the union of region and brush recipe names, deduplicated.
func (r *Registry) AllNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{}, len(r.regions)+len(r.brushes))
	for name := range r.regions {
		seen[name] = struct{}{}
	}
	for name := range r.brushes {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	return names
}
