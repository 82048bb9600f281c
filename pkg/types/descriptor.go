package types

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Storage formats a descriptor may request. Backends validate the format at
// create and update time; the registry never inspects record payloads.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// knownFormats is the set of formats Validate accepts.
var knownFormats = map[string]bool{
	FormatJSON: true,
	FormatCSV:  true,
}

// Descriptor describes a dataset's schema and storage configuration. It is
// immutable once attached to a created dataset except through
// Registry.Update; registries store and return defensive copies so a caller
// holding a handle cannot mutate catalog state.
type Descriptor struct {
	// Schema is the record schema as a JSON document. Required.
	Schema json.RawMessage `json:"schema"`

	// Format is the storage format for records. Empty means FormatJSON.
	Format string `json:"format,omitempty"`

	// Partition is the ordered list of schema field names the dataset is
	// partitioned by. Empty means unpartitioned.
	Partition []string `json:"partition,omitempty"`

	// Location is an optional storage location hint. Interpretation is
	// backend-defined.
	Location string `json:"location,omitempty"`
}

// Validate checks that the descriptor is well-formed: a non-empty,
// syntactically valid JSON schema, a known format, and non-empty partition
// field names. Returns ErrInvalidDescriptor or ErrUnsupportedDescriptor.
func (d Descriptor) Validate() error {
	if len(d.Schema) == 0 {
		return fmt.Errorf("%w: schema is required", ErrInvalidDescriptor)
	}
	if !json.Valid(d.Schema) {
		return fmt.Errorf("%w: schema is not valid JSON", ErrInvalidDescriptor)
	}
	if d.Format != "" && !knownFormats[d.Format] {
		return fmt.Errorf("%w: format %q", ErrUnsupportedDescriptor, d.Format)
	}
	for _, field := range d.Partition {
		if field == "" {
			return fmt.Errorf("%w: empty partition field name", ErrInvalidDescriptor)
		}
	}
	return nil
}

// Normalized returns a deep copy of the descriptor with defaults applied:
// an empty Format becomes FormatJSON. Backends store the normalized form.
func (d Descriptor) Normalized() Descriptor {
	out := d.Clone()
	if out.Format == "" {
		out.Format = FormatJSON
	}
	return out
}

// Clone returns a deep copy sharing no memory with the receiver.
func (d Descriptor) Clone() Descriptor {
	out := d
	out.Schema = slices.Clone(d.Schema)
	out.Partition = slices.Clone(d.Partition)
	return out
}

// Equal reports whether two descriptors are identical after normalization.
func (d Descriptor) Equal(other Descriptor) bool {
	a, b := d.Normalized(), other.Normalized()
	return string(a.Schema) == string(b.Schema) &&
		a.Format == b.Format &&
		a.Location == b.Location &&
		slices.Equal(a.Partition, b.Partition)
}

// SamePartition reports whether both descriptors declare the same partition
// strategy. Partition order is significant.
func (d Descriptor) SamePartition(other Descriptor) bool {
	return slices.Equal(d.Partition, other.Partition)
}

// MergeUpdate checks that next is an in-place applicable replacement for
// current and returns the normalized descriptor to store. Format,
// partition-strategy, and location changes fail with ErrUnsupportedUpdate;
// an empty next.Location inherits the current location. Schema replacement
// is always accepted here — compatibility checking is a collaborator
// concern, not part of the registry contract.
func MergeUpdate(current, next Descriptor) (Descriptor, error) {
	merged := next.Normalized()
	if merged.Format != current.Format {
		return Descriptor{}, fmt.Errorf("%w: format change from %q to %q",
			ErrUnsupportedUpdate, current.Format, merged.Format)
	}
	if !current.SamePartition(merged) {
		return Descriptor{}, fmt.Errorf("%w: partition strategy change", ErrUnsupportedUpdate)
	}
	if merged.Location == "" {
		merged.Location = current.Location
	} else if merged.Location != current.Location {
		return Descriptor{}, fmt.Errorf("%w: location change from %q to %q",
			ErrUnsupportedUpdate, current.Location, merged.Location)
	}
	return merged, nil
}
