package types

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDatasetHandle_Snapshot(t *testing.T) {
	desc := Descriptor{Schema: json.RawMessage(`{"fields":[]}`), Format: FormatJSON}
	ds := NewDataset("events", desc)

	if ds.Name() != "events" {
		t.Errorf("expected name 'events', got %q", ds.Name())
	}

	// Mutating the returned copy must not touch the handle's snapshot.
	got := ds.Descriptor()
	got.Schema[1] = 'x'
	got.Format = FormatCSV

	again := ds.Descriptor()
	if string(again.Schema) != `{"fields":[]}` {
		t.Errorf("handle snapshot was mutated: %s", again.Schema)
	}
	if again.Format != FormatJSON {
		t.Errorf("handle format was mutated: %q", again.Format)
	}
}

func TestTypedView_DecodeRecord(t *testing.T) {
	type event struct {
		ID   string `json:"id"`
		Kind string `json:"kind"`
	}

	ds := NewDataset("events", Descriptor{Schema: json.RawMessage(`{}`)})
	view := As[event](ds)

	if view.Name() != "events" {
		t.Errorf("expected view name 'events', got %q", view.Name())
	}

	rec, err := view.DecodeRecord([]byte(`{"id":"e1","kind":"click"}`))
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}
	if rec.ID != "e1" || rec.Kind != "click" {
		t.Errorf("unexpected record: %+v", rec)
	}

	if _, err := view.DecodeRecord([]byte(`{"id":`)); err == nil {
		t.Error("expected error for malformed record")
	}
}

func TestTypedView_DecodeRecord_CSVUnsupported(t *testing.T) {
	ds := NewDataset("events", Descriptor{
		Schema: json.RawMessage(`{}`),
		Format: FormatCSV,
	})
	view := As[map[string]any](ds)

	_, err := view.DecodeRecord([]byte(`a,b`))
	if !errors.Is(err, ErrUnsupportedDescriptor) {
		t.Errorf("expected ErrUnsupportedDescriptor, got %v", err)
	}
}
