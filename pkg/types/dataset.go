package types

import (
	"encoding/json"
	"fmt"
)

// Dataset is the handle returned by Registry.Load and Registry.Create: a
// live reference bound to one name and the descriptor active at retrieval
// time. The registry never mutates a handle after returning it.
type Dataset struct {
	name       string
	descriptor Descriptor
}

// NewDataset builds a handle for name with a snapshot of descriptor.
// Backends call this when returning from Load, Create, and Update.
func NewDataset(name string, descriptor Descriptor) *Dataset {
	return &Dataset{name: name, descriptor: descriptor.Clone()}
}

// Name returns the dataset name the handle was retrieved with.
func (d *Dataset) Name() string {
	return d.name
}

// Descriptor returns a copy of the descriptor snapshot. Mutating the copy
// has no effect on the catalog or on the handle.
func (d *Dataset) Descriptor() Descriptor {
	return d.descriptor.Clone()
}

// Typed is a record-typed view over an untyped Dataset handle. The registry
// contract is agnostic to E; the view does not check E against the stored
// schema.
type Typed[E any] struct {
	ds *Dataset
}

// As wraps a handle in a typed view for record type E.
func As[E any](d *Dataset) Typed[E] {
	return Typed[E]{ds: d}
}

// Name returns the underlying dataset name.
func (t Typed[E]) Name() string {
	return t.ds.Name()
}

// Descriptor returns a copy of the underlying descriptor snapshot.
func (t Typed[E]) Descriptor() Descriptor {
	return t.ds.Descriptor()
}

// DecodeRecord unmarshals one stored record into E according to the
// descriptor format. Only FormatJSON supports typed decoding; other formats
// fail with ErrUnsupportedDescriptor.
func (t Typed[E]) DecodeRecord(data []byte) (E, error) {
	var rec E
	desc := t.ds.Descriptor().Normalized()
	if desc.Format != FormatJSON {
		return rec, fmt.Errorf("%w: typed decode of %q records", ErrUnsupportedDescriptor, desc.Format)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decoding record: %w", err)
	}
	return rec, nil
}
