package types

import (
	"fmt"
	"strings"
)

// Registry is a logical catalog of named datasets backed by a storage
// system. A registry acts as a factory as well as a catalog: callers create
// a dataset with a name and descriptor, or retrieve a handle to an existing
// one by name.
//
// Implementations are immutable: connection parameters and the root
// location are fixed at construction, only the set of named datasets
// changes. A Registry is safe for concurrent use; operations on different
// names never serialize each other, and create/delete on one name are
// linearizable with what Exists and Load observe afterward.
//
// No guarantees are made about the durability of the underlying storage.
// See the backend package for the guarantees it provides.
type Registry interface {
	// Load resolves name against the catalog and returns a handle bound
	// to the dataset's current descriptor. The handle does not refresh if
	// another caller later updates the same name.
	// Returns ErrNoSuchDataset if no dataset named name exists.
	Load(name string) (*Dataset, error)

	// Create validates the descriptor, persists a catalog entry, and
	// returns a handle to the new dataset. Concurrent creates for one
	// name yield exactly one success; the rest fail with
	// ErrDatasetExists. A pre-existing name is never overwritten.
	Create(name string, descriptor Descriptor) (*Dataset, error)

	// Update replaces the dataset's descriptor in place, all or nothing.
	// Changes the backend cannot safely apply (format, partition
	// strategy, location) fail with ErrUnsupportedUpdate and leave the
	// existing descriptor observable.
	Update(name string, descriptor Descriptor) (*Dataset, error)

	// Delete removes the catalog entry and any backend storage artifacts,
	// returning true on success. Returns ErrNoSuchDataset when the name
	// is absent or its metadata cannot be resolved.
	Delete(name string) (bool, error)

	// Exists reports catalog membership. It never mutates state and
	// returns false, not an error, for a simply-absent name.
	Exists(name string) (bool, error)

	// List returns the names of all datasets in the catalog. The slice is
	// empty, never nil, when the catalog holds no datasets.
	List() ([]string, error)
}

// ValidateName checks that name is usable as a dataset name: non-empty,
// no leading dot, no path separators or NUL. Leading dots are reserved for
// backend metadata, so every backend lists the same names it created.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q has a leading dot", ErrInvalidName, name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}
	return nil
}
