package filesystem

import (
	"encoding/json"
	"errors"
	"path"
	"testing"

	"github.com/spf13/afero"

	"github.com/mesh-intelligence/datakeep/pkg/types"
)

func testDescriptor() types.Descriptor {
	return types.Descriptor{
		Schema: json.RawMessage(`{"fields":[{"name":"id","type":"string"}]}`),
		Format: types.FormatJSON,
	}
}

func newMemRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewWithFs(afero.NewMemMapFs(), "/data")
	if err != nil {
		t.Fatalf("NewWithFs failed: %v", err)
	}
	return r
}

func TestRegistry_CreateWritesDescriptorFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	r, err := NewWithFs(fsys, "/data")
	if err != nil {
		t.Fatalf("NewWithFs failed: %v", err)
	}

	ds, err := r.Create("events", testDescriptor())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if ds.Name() != "events" {
		t.Errorf("expected handle name 'events', got %q", ds.Name())
	}

	data, err := afero.ReadFile(fsys, "/data/events/.metadata/descriptor.json")
	if err != nil {
		t.Fatalf("descriptor.json not written: %v", err)
	}
	var stored types.Descriptor
	if err := json.Unmarshal(data, &stored); err != nil {
		t.Fatalf("descriptor.json does not parse: %v", err)
	}
	if stored.Format != types.FormatJSON {
		t.Errorf("expected stored format %q, got %q", types.FormatJSON, stored.Format)
	}
}

func TestRegistry_CreateDuplicate(t *testing.T) {
	r := newMemRegistry(t)

	if _, err := r.Create("events", testDescriptor()); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := r.Create("events", testDescriptor())
	if !errors.Is(err, types.ErrDatasetExists) {
		t.Errorf("expected ErrDatasetExists, got %v", err)
	}
}

func TestRegistry_CreateDotNameRejected(t *testing.T) {
	r := newMemRegistry(t)

	// Dot entries under the root belong to backend metadata and are
	// filtered from List, so the name is rejected up front.
	_, err := r.Create(".hidden", testDescriptor())
	if !errors.Is(err, types.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}

	names, err := r.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("nothing was created, but List returned %v", names)
	}
}

func TestRegistry_CreateOverStrayFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	r, _ := NewWithFs(fsys, "/data")

	afero.WriteFile(fsys, "/data/events", []byte("not a dataset"), 0o644)

	_, err := r.Create("events", testDescriptor())
	if errors.Is(err, types.ErrDatasetExists) {
		t.Error("a stray file is not a dataset; Create must not report a duplicate")
	}
	if !types.IsRepositoryError(err) {
		t.Errorf("expected RepositoryError, got %v", err)
	}

	if exists, _ := r.Exists("events"); exists {
		t.Error("Exists should stay false for a non-directory entry")
	}
}

func TestRegistry_LoadRoundtrip(t *testing.T) {
	r := newMemRegistry(t)

	want := testDescriptor()
	want.Partition = []string{"region"}
	want.Location = "/srv/events"
	r.Create("events", want)

	ds, err := r.Load("events")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !ds.Descriptor().Equal(want) {
		t.Errorf("loaded descriptor differs: %+v", ds.Descriptor())
	}
}

func TestRegistry_LoadAbsent(t *testing.T) {
	r := newMemRegistry(t)

	_, err := r.Load("missing")
	if !errors.Is(err, types.ErrNoSuchDataset) {
		t.Errorf("expected ErrNoSuchDataset, got %v", err)
	}
}

func TestRegistry_UpdateSchemaOnly(t *testing.T) {
	r := newMemRegistry(t)
	r.Create("events", testDescriptor())

	next := testDescriptor()
	next.Schema = json.RawMessage(`{"fields":[{"name":"id","type":"string"},{"name":"ts","type":"long"}]}`)

	if _, err := r.Update("events", next); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	ds, _ := r.Load("events")
	if string(ds.Descriptor().Schema) != string(next.Schema) {
		t.Error("Load after Update should observe the new schema")
	}

	// Unsupported change leaves the stored descriptor alone.
	bad := testDescriptor()
	bad.Format = types.FormatCSV
	if _, err := r.Update("events", bad); !errors.Is(err, types.ErrUnsupportedUpdate) {
		t.Fatalf("expected ErrUnsupportedUpdate, got %v", err)
	}
	ds, _ = r.Load("events")
	if ds.Descriptor().Format != types.FormatJSON {
		t.Error("rejected update must not change the stored format")
	}
}

func TestRegistry_DeleteRemovesTree(t *testing.T) {
	fsys := afero.NewMemMapFs()
	r, _ := NewWithFs(fsys, "/data")
	r.Create("events", testDescriptor())

	// Simulate stored records beside the metadata.
	afero.WriteFile(fsys, "/data/events/part-0000.json", []byte(`{"id":"e1"}`), 0o644)

	ok, err := r.Delete("events")
	if err != nil || !ok {
		t.Fatalf("Delete = (%v, %v), want (true, nil)", ok, err)
	}

	if exists, _ := afero.DirExists(fsys, "/data/events"); exists {
		t.Error("dataset directory should be removed")
	}
	if exists, _ := r.Exists("events"); exists {
		t.Error("Exists should be false after delete")
	}
}

func TestRegistry_DeleteAbsent(t *testing.T) {
	r := newMemRegistry(t)

	_, err := r.Delete("missing")
	if !errors.Is(err, types.ErrNoSuchDataset) {
		t.Errorf("expected ErrNoSuchDataset, got %v", err)
	}
}

func TestRegistry_DeleteUnresolvableMetadata(t *testing.T) {
	fsys := afero.NewMemMapFs()
	r, _ := NewWithFs(fsys, "/data")
	r.Create("events", testDescriptor())

	// Corrupt the descriptor; the dataset location can no longer be resolved.
	path := "/data/events/.metadata/descriptor.json"
	afero.WriteFile(fsys, path, []byte(`{"schema":`), 0o644)

	_, err := r.Delete("events")
	if !errors.Is(err, types.ErrNoSuchDataset) {
		t.Errorf("expected ErrNoSuchDataset for corrupt metadata, got %v", err)
	}

	// A directory with no metadata at all reports the same way.
	fsys.MkdirAll("/data/orphan", 0o755)
	if _, err := r.Delete("orphan"); !errors.Is(err, types.ErrNoSuchDataset) {
		t.Errorf("expected ErrNoSuchDataset for missing metadata, got %v", err)
	}
}

func TestRegistry_CorruptDescriptorIsStorageFaultOnLoad(t *testing.T) {
	fsys := afero.NewMemMapFs()
	r, _ := NewWithFs(fsys, "/data")
	r.Create("events", testDescriptor())

	afero.WriteFile(fsys, "/data/events/.metadata/descriptor.json", []byte(`not json`), 0o644)

	_, err := r.Load("events")
	if !types.IsRepositoryError(err) {
		t.Errorf("expected RepositoryError, got %v", err)
	}
}

func TestRegistry_List(t *testing.T) {
	r := newMemRegistry(t)

	names, err := r.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if names == nil || len(names) != 0 {
		t.Errorf("empty registry should list an empty non-nil slice, got %v", names)
	}

	r.Create("events", testDescriptor())
	r.Create("accounts", testDescriptor())

	names, _ = r.List()
	if len(names) != 2 {
		t.Fatalf("expected 2 names, got %v", names)
	}
}

func TestRegistry_OsFs(t *testing.T) {
	root := path.Join(t.TempDir(), "registry")
	r, err := New(root)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := r.Create("events", testDescriptor()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	ds, err := r.Load("events")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !ds.Descriptor().Equal(testDescriptor()) {
		t.Error("descriptor roundtrip through the OS filesystem failed")
	}
}
