package types

import (
	"errors"
	"fmt"
)

// Registry operation errors. Callers branch on these with errors.Is; every
// error returned by a Registry wraps exactly one of them or is a
// *RepositoryError.
var (
	// ErrInvalidName reports a missing or malformed dataset name.
	// Always a caller bug; never retried.
	ErrInvalidName = errors.New("invalid dataset name")

	// ErrInvalidDescriptor reports a missing or malformed descriptor.
	ErrInvalidDescriptor = errors.New("invalid dataset descriptor")

	// ErrNoSuchDataset reports that no dataset with the given name exists,
	// or that its metadata cannot be resolved.
	ErrNoSuchDataset = errors.New("no such dataset")

	// ErrDatasetExists reports a create for a name already in the catalog.
	ErrDatasetExists = errors.New("dataset already exists")

	// ErrUnsupportedDescriptor reports a descriptor the backend cannot
	// support (schema shape, format, partition strategy).
	ErrUnsupportedDescriptor = errors.New("unsupported dataset descriptor")

	// ErrUnsupportedUpdate reports a descriptor change the backend cannot
	// safely apply in place, such as a format or partition-strategy change.
	ErrUnsupportedUpdate = errors.New("unsupported descriptor update")
)

// RepositoryError wraps an underlying storage fault (I/O, connectivity,
// corruption) encountered by a Registry backend. It may be transient; retry
// is the caller's responsibility.
type RepositoryError struct {
	Backend string // backend name, e.g. "sqlite"
	Op      string // failing operation, e.g. "load"
	Err     error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s registry: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError wraps err as a backend storage fault.
func NewRepositoryError(backend, op string, err error) *RepositoryError {
	return &RepositoryError{Backend: backend, Op: op, Err: err}
}

// IsRepositoryError reports whether err is (or wraps) a storage fault.
func IsRepositoryError(err error) bool {
	var re *RepositoryError
	return errors.As(err, &re)
}
