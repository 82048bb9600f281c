package sqlite

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mesh-intelligence/datakeep/pkg/types"
)

func testDescriptor() types.Descriptor {
	return types.Descriptor{
		Schema: json.RawMessage(`{"fields":[{"name":"id","type":"string"}]}`),
		Format: types.FormatJSON,
	}
}

func openTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	dataDir := t.TempDir()
	r, err := Open(dataDir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r, dataDir
}

func TestOpen_CreatesCatalog(t *testing.T) {
	_, dataDir := openTestRegistry(t)

	if _, err := os.Stat(filepath.Join(dataDir, catalogDB)); os.IsNotExist(err) {
		t.Error("catalog.db not created")
	}
}

func TestOpen_EmptyDataDir(t *testing.T) {
	if _, err := Open(""); !errors.Is(err, types.ErrDataDirEmpty) {
		t.Errorf("expected ErrDataDirEmpty, got %v", err)
	}
}

func TestRegistry_CreateLoad(t *testing.T) {
	r, _ := openTestRegistry(t)

	created, err := r.Create("events", testDescriptor())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Name() != "events" {
		t.Errorf("expected handle name 'events', got %q", created.Name())
	}

	loaded, err := r.Load("events")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !loaded.Descriptor().Equal(testDescriptor()) {
		t.Error("loaded descriptor should equal the created one")
	}
}

func TestRegistry_CreateDuplicate(t *testing.T) {
	r, _ := openTestRegistry(t)

	if _, err := r.Create("events", testDescriptor()); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	second := testDescriptor()
	second.Schema = json.RawMessage(`{"other":true}`)
	_, err := r.Create("events", second)
	if !errors.Is(err, types.ErrDatasetExists) {
		t.Fatalf("expected ErrDatasetExists, got %v", err)
	}

	ds, _ := r.Load("events")
	if !ds.Descriptor().Equal(testDescriptor()) {
		t.Error("failed create must not alter the stored descriptor")
	}
}

func TestRegistry_CreateAcrossInstances(t *testing.T) {
	dataDir := t.TempDir()

	a, err := Open(dataDir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	b, err := Open(dataDir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer b.Close()

	if _, err := a.Create("events", testDescriptor()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// A second instance sharing the catalog sees the committed row.
	if _, err := b.Create("events", testDescriptor()); !errors.Is(err, types.ErrDatasetExists) {
		t.Errorf("expected ErrDatasetExists from the other instance, got %v", err)
	}

	// An instance that passed the existence check before the row committed
	// loses on the primary key instead; that failure must read as a
	// duplicate, not a storage fault.
	now := "2026-08-30T10:00:00Z"
	_, err = b.db.Exec(
		"INSERT INTO datasets (dataset_id, name, descriptor, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		newUUID(), "events", `{"schema":{}}`, now, now)
	if err == nil {
		t.Fatal("duplicate insert should fail on the primary key")
	}
	if !isConstraintViolation(err) {
		t.Errorf("expected a constraint violation, got %v", err)
	}
}

func TestRegistry_UpdateAndRejection(t *testing.T) {
	r, _ := openTestRegistry(t)
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

func TestRegistry_UpdateAbsent(t *testing.T) {
	r, _ := openTestRegistry(t)

	_, err := r.Update("missing", testDescriptor())
	if !errors.Is(err, types.ErrNoSuchDataset) {
		t.Errorf("expected ErrNoSuchDataset, got %v", err)
	}
}

func TestRegistry_DeleteAndExists(t *testing.T) {
	r, _ := openTestRegistry(t)
	r.Create("events", testDescriptor())

	ok, err := r.Exists("events")
	if err != nil || !ok {
		t.Fatalf("Exists = (%v, %v), want (true, nil)", ok, err)
	}

	deleted, err := r.Delete("events")
	if err != nil || !deleted {
		t.Fatalf("Delete = (%v, %v), want (true, nil)", deleted, err)
	}

	ok, err = r.Exists("events")
	if err != nil || ok {
		t.Errorf("Exists after delete = (%v, %v), want (false, nil)", ok, err)
	}
	if _, err := r.Load("events"); !errors.Is(err, types.ErrNoSuchDataset) {
		t.Errorf("Load after delete: expected ErrNoSuchDataset, got %v", err)
	}
	if _, err := r.Delete("events"); !errors.Is(err, types.ErrNoSuchDataset) {
		t.Errorf("second Delete: expected ErrNoSuchDataset, got %v", err)
	}
}

func TestRegistry_DeleteUnresolvableMetadata(t *testing.T) {
	r, _ := openTestRegistry(t)
	r.Create("events", testDescriptor())

	// Corrupt the descriptor column directly.
	if _, err := r.db.Exec("UPDATE datasets SET descriptor = 'not json' WHERE name = 'events'"); err != nil {
		t.Fatalf("corrupting descriptor failed: %v", err)
	}

	_, err := r.Delete("events")
	if !errors.Is(err, types.ErrNoSuchDataset) {
		t.Errorf("expected ErrNoSuchDataset for unresolvable metadata, got %v", err)
	}
}

func TestRegistry_List(t *testing.T) {
	r, _ := openTestRegistry(t)

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
	if len(names) != 2 || names[0] != "accounts" || names[1] != "events" {
		t.Errorf("expected [accounts events], got %v", names)
	}
}

func TestRegistry_MirrorWritten(t *testing.T) {
	r, dataDir := openTestRegistry(t)
	r.Create("events", testDescriptor())

	records, err := readCatalogJSONL(filepath.Join(dataDir, catalogJSONL))
	if err != nil {
		t.Fatalf("reading mirror failed: %v", err)
	}
	if len(records) != 1 || records[0].Name != "events" {
		t.Fatalf("unexpected mirror contents: %+v", records)
	}
	if records[0].DatasetID == "" {
		t.Error("mirror record should carry the dataset id")
	}

	r.Delete("events")
	records, _ = readCatalogJSONL(filepath.Join(dataDir, catalogJSONL))
	if len(records) != 0 {
		t.Errorf("mirror should be empty after delete, got %+v", records)
	}
}

func TestRegistry_PersistsAcrossReopen(t *testing.T) {
	dataDir := t.TempDir()

	r, err := Open(dataDir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	r.Create("events", testDescriptor())
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close should not error, got %v", err)
	}

	r2, err := Open(dataDir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer r2.Close()

	ds, err := r2.Load("events")
	if err != nil {
		t.Fatalf("Load after reopen failed: %v", err)
	}
	if !ds.Descriptor().Equal(testDescriptor()) {
		t.Error("descriptor should survive reopen")
	}
}

func TestRegistry_OperationsAfterClose(t *testing.T) {
	dataDir := t.TempDir()

	r, err := Open(dataDir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	r.Create("events", testDescriptor())
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := r.Load("events"); !types.IsRepositoryError(err) {
		t.Errorf("Load after Close should be a RepositoryError, got %v", err)
	}
	if _, err := r.Exists("events"); !types.IsRepositoryError(err) {
		t.Errorf("Exists after Close should be a RepositoryError, got %v", err)
	}
	if _, err := r.List(); !types.IsRepositoryError(err) {
		t.Errorf("List after Close should be a RepositoryError, got %v", err)
	}
}

func TestRegistry_RebuildsFromMirror(t *testing.T) {
	dataDir := t.TempDir()

	r, _ := Open(dataDir)
	r.Create("events", testDescriptor())
	r.Create("accounts", testDescriptor())
	r.Close()

	// Lose the database; the mirror remains.
	if err := os.Remove(filepath.Join(dataDir, catalogDB)); err != nil {
		t.Fatalf("removing catalog.db failed: %v", err)
	}

	r2, err := Open(dataDir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer r2.Close()

	names, _ := r2.List()
	if len(names) != 2 {
		t.Fatalf("expected catalog rebuilt from mirror, got %v", names)
	}
	ds, err := r2.Load("events")
	if err != nil {
		t.Fatalf("Load after rebuild failed: %v", err)
	}
	if !ds.Descriptor().Equal(testDescriptor()) {
		t.Error("descriptor should survive the mirror roundtrip")
	}
}
