// Package memory implements a map-backed dataset registry. It conforms to
// the same contract as the persistent backends and doubles as the test
// registry for code that needs a catalog without touching disk.
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mesh-intelligence/datakeep/pkg/types"
)

// Registry is an in-memory catalog of name to descriptor. The zero value is
// not usable; call New.
type Registry struct {
	mu       sync.RWMutex
	datasets map[string]types.Descriptor
}

// New returns an empty in-memory registry.
func New() *Registry {
	return &Registry{datasets: make(map[string]types.Descriptor)}
}

// Load returns a handle bound to the dataset's current descriptor.
func (r *Registry) Load(name string) (*types.Dataset, error) {
	if err := types.ValidateName(name); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, ok := r.datasets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrNoSuchDataset, name)
	}
	return types.NewDataset(name, desc), nil
}

// Create registers a new dataset. The map insert under the write lock makes
// concurrent creates for one name resolve to a single winner.
func (r *Registry) Create(name string, descriptor types.Descriptor) (*types.Dataset, error) {
	if err := types.ValidateName(name); err != nil {
		return nil, err
	}
	if err := descriptor.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.datasets[name]; ok {
		return nil, fmt.Errorf("%w: %q", types.ErrDatasetExists, name)
	}
	stored := descriptor.Normalized()
	r.datasets[name] = stored
	return types.NewDataset(name, stored), nil
}

// Update replaces the dataset's descriptor. Format, partition-strategy, and
// location changes are rejected; the stored descriptor is untouched on any
// failure.
func (r *Registry) Update(name string, descriptor types.Descriptor) (*types.Dataset, error) {
	if err := types.ValidateName(name); err != nil {
		return nil, err
	}
	if err := descriptor.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.datasets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrNoSuchDataset, name)
	}
	next, err := types.MergeUpdate(current, descriptor)
	if err != nil {
		return nil, err
	}
	r.datasets[name] = next
	return types.NewDataset(name, next), nil
}

// Delete removes the dataset, returning true on success.
func (r *Registry) Delete(name string) (bool, error) {
	if err := types.ValidateName(name); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.datasets[name]; !ok {
		return false, fmt.Errorf("%w: %q", types.ErrNoSuchDataset, name)
	}
	delete(r.datasets, name)
	return true, nil
}

// Exists reports catalog membership without mutating state.
func (r *Registry) Exists(name string) (bool, error) {
	if err := types.ValidateName(name); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.datasets[name]
	return ok, nil
}

// List returns all dataset names, sorted for deterministic output.
func (r *Registry) List() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.datasets))
	for name := range r.datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
