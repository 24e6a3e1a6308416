// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/gogpu/hwcodec"
)

// Factory creates a new Surface with the given options.
// Implementations should validate options and return descriptive errors.
type Factory func(ctx context.Context, opts Options) (Surface, error)

// RegistryEntry represents a registered surface kind.
type RegistryEntry struct {
	// Name is the unique identifier for this kind.
	Name string

	// Priority determines selection order (higher = preferred).
	// Standard priorities:
	//   - 100: GPU surfaces
	//   - 10: CPU compositors
	Priority int

	// Factory creates surface instances.
	Factory Factory

	// Available reports if the kind can be created on this system.
	Available func() bool
}

// globalRegistry is the default registry.
var globalRegistry = &Registry{}

// Registry manages registered surface kinds.
//
// Example usage:
//
//	s, err := surface.NewSurfaceByName(ctx, "gpu", surface.DefaultOptions(1280, 720))
//	// or the best kind that can be created:
//	s, err := surface.NewSurface(ctx, surface.DefaultOptions(1280, 720))
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*RegistryEntry
}

// NewRegistry creates a new empty registry.
// Most code should use the global registry via Register and NewSurface.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*RegistryEntry),
	}
}

// Register adds a surface kind to the global registry.
//
// If available is nil, the kind is assumed always available.
// Registering a name that already exists replaces the previous entry.
func Register(name string, priority int, factory Factory, available func() bool) {
	globalRegistry.Register(name, priority, factory, available)
}

// Unregister removes a surface kind from the global registry.
func Unregister(name string) {
	globalRegistry.Unregister(name)
}

// List returns all registered names sorted by priority (highest first).
func List() []string {
	return globalRegistry.List()
}

// Available returns names of all available kinds sorted by priority.
func Available() []string {
	return globalRegistry.Available()
}

// Get returns information about a specific kind.
func Get(name string) (*RegistryEntry, bool) {
	return globalRegistry.Get(name)
}

// NewSurface creates a surface of the best kind that succeeds.
func NewSurface(ctx context.Context, opts Options) (Surface, error) {
	return globalRegistry.NewSurface(ctx, opts)
}

// NewSurfaceByName creates a surface of a specific kind.
func NewSurfaceByName(ctx context.Context, name string, opts Options) (Surface, error) {
	return globalRegistry.NewSurfaceByName(ctx, name, opts)
}

// Register adds a surface kind to this registry.
func (r *Registry) Register(name string, priority int, factory Factory, available func() bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[string]*RegistryEntry)
	}

	if available == nil {
		available = func() bool { return true }
	}

	r.entries[name] = &RegistryEntry{
		Name:      name,
		Priority:  priority,
		Factory:   factory,
		Available: available,
	}
}

// Unregister removes a surface kind from this registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, name)
}

// List returns all registered names sorted by priority.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames(false)
}

// Available returns names of all available kinds sorted by priority.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames(true)
}

// Get returns information about a specific kind.
func (r *Registry) Get(name string) (*RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}

	entryCopy := *entry
	return &entryCopy, true
}

// NewSurface tries each available kind in priority order. Every failed
// attempt is logged at Warn before the next kind is tried; the joined
// errors are returned when all fail.
func (r *Registry) NewSurface(ctx context.Context, opts Options) (Surface, error) {
	r.mu.RLock()
	available := r.sortedNames(true)
	r.mu.RUnlock()

	if len(available) == 0 {
		return nil, ErrNoBackendAvailable
	}

	var errs []error
	for _, name := range available {
		s, err := r.NewSurfaceByName(ctx, name, opts)
		if err == nil {
			return s, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		hwcodec.Logger().Warn("surface: create failed, trying next kind", "kind", name, "err", err)
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

// NewSurfaceByName creates a surface of a specific kind.
func (r *Registry) NewSurfaceByName(ctx context.Context, name string, opts Options) (Surface, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &BackendNotFoundError{Name: name}
	}

	if !entry.Available() {
		return nil, &BackendUnavailableError{Name: name}
	}

	return entry.Factory(ctx, opts)
}

// sortedNames returns names sorted by priority (highest first), then by
// name. If onlyAvailable is true, filters to available kinds only.
// Must be called with lock held.
func (r *Registry) sortedNames(onlyAvailable bool) []string {
	if len(r.entries) == 0 {
		return nil
	}

	type entry struct {
		name     string
		priority int
	}

	entries := make([]entry, 0, len(r.entries))
	for name, e := range r.entries {
		if onlyAvailable && !e.Available() {
			continue
		}
		entries = append(entries, entry{name: name, priority: e.Priority})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority > entries[j].priority
		}
		return entries[i].name < entries[j].name
	})

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

// ErrNoBackendAvailable is returned when no surface kinds are registered
// or available on the current system.
var ErrNoBackendAvailable = errors.New("surface: no backend available")

// BackendNotFoundError indicates a named kind is not registered.
type BackendNotFoundError struct {
	Name string
}

func (e *BackendNotFoundError) Error() string {
	return "surface: backend not found: " + e.Name
}

// BackendUnavailableError indicates a kind exists but is not available.
type BackendUnavailableError struct {
	Name string
}

func (e *BackendUnavailableError) Error() string {
	return "surface: backend unavailable: " + e.Name
}

// init registers the built-in surface kinds.
func init() {
	Register("gpu", 100, func(ctx context.Context, opts Options) (Surface, error) {
		return NewGPUSurface(ctx, opts)
	}, nil)
	Register("image", 10, func(_ context.Context, opts Options) (Surface, error) {
		return NewImageSurfaceWithOptions(opts)
	}, nil)
}
