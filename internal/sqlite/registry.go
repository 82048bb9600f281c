// Package sqlite implements the SQLite dataset registry backend. The
// catalog lives in catalog.db inside the data directory; a datasets.jsonl
// mirror is rewritten after every mutation so catalogs diff cleanly under
// version control and can rebuild the database if it goes missing.
package sqlite

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/datakeep/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

const (
	backendName  = "sqlite"
	catalogDB    = "catalog.db"
	catalogJSONL = "datasets.jsonl"
)

// Registry implements the dataset registry over a SQLite catalog. The data
// directory and connection are fixed at Open; only catalog rows change.
type Registry struct {
	mu      sync.RWMutex
	db      *sql.DB
	dataDir string
	closed  bool
}

// Open creates the data directory if needed, opens the catalog database,
// and rebuilds it from datasets.jsonl when the database is empty but a
// mirror exists.
func Open(dataDir string) (*Registry, error) {
	if dataDir == "" {
		return nil, types.ErrDataDirEmpty
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, types.NewRepositoryError(backendName, "open", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, catalogDB))
	if err != nil {
		return nil, types.NewRepositoryError(backendName, "open", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, types.NewRepositoryError(backendName, "open", err)
	}

	r := &Registry{db: db, dataDir: dataDir}
	if err := r.reconcile(); err != nil {
		db.Close()
		return nil, types.NewRepositoryError(backendName, "open", err)
	}
	return r, nil
}

// Close releases the database connection. Idempotent. The handle is kept
// so registry calls after Close fail with a RepositoryError from the
// closed database rather than panicking.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.db.Close()
}

// Load returns a handle bound to the dataset's current descriptor.
func (r *Registry) Load(name string) (*types.Dataset, error) {
	if err := types.ValidateName(name); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, err := r.selectDescriptor(name, "load")
	if err != nil {
		return nil, err
	}
	return types.NewDataset(name, desc), nil
}

// Create inserts a catalog row for name. The write lock serializes creates
// within this process; the primary key on name settles races with other
// processes sharing the catalog, so one winner remains either way.
func (r *Registry) Create(name string, descriptor types.Descriptor) (*types.Dataset, error) {
	if err := types.ValidateName(name); err != nil {
		return nil, err
	}
	if err := descriptor.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var one int
	err := r.db.QueryRow("SELECT 1 FROM datasets WHERE name = ?", name).Scan(&one)
	if err == nil {
		return nil, fmt.Errorf("%w: %q", types.ErrDatasetExists, name)
	}
	if err != sql.ErrNoRows {
		return nil, types.NewRepositoryError(backendName, "create", err)
	}

	stored := descriptor.Normalized()
	descJSON, err := json.Marshal(stored)
	if err != nil {
		return nil, types.NewRepositoryError(backendName, "create",
			fmt.Errorf("encoding descriptor: %w", err))
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = r.db.Exec(
		"INSERT INTO datasets (dataset_id, name, descriptor, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		newUUID(), name, string(descJSON), now, now)
	if err != nil {
		// Another registry instance can commit the same name between our
		// existence check and this insert; the constraint failure is the
		// losing side of that race, not a storage fault.
		if isConstraintViolation(err) {
			return nil, fmt.Errorf("%w: %q", types.ErrDatasetExists, name)
		}
		return nil, types.NewRepositoryError(backendName, "create", err)
	}

	if err := r.persistJSONL(); err != nil {
		return nil, types.NewRepositoryError(backendName, "create", err)
	}
	return types.NewDataset(name, stored), nil
}

// Update replaces the stored descriptor in place, rejecting changes that
// cannot be applied safely. The row is only written after the merge check
// passes, so a rejection leaves the catalog untouched.
func (r *Registry) Update(name string, descriptor types.Descriptor) (*types.Dataset, error) {
	if err := types.ValidateName(name); err != nil {
		return nil, err
	}
	if err := descriptor.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.selectDescriptor(name, "update")
	if err != nil {
		return nil, err
	}
	next, err := types.MergeUpdate(current, descriptor)
	if err != nil {
		return nil, err
	}

	descJSON, err := json.Marshal(next)
	if err != nil {
		return nil, types.NewRepositoryError(backendName, "update",
			fmt.Errorf("encoding descriptor: %w", err))
	}
	_, err = r.db.Exec(
		"UPDATE datasets SET descriptor = ?, updated_at = ? WHERE name = ?",
		string(descJSON), time.Now().UTC().Format(time.RFC3339), name)
	if err != nil {
		return nil, types.NewRepositoryError(backendName, "update", err)
	}

	if err := r.persistJSONL(); err != nil {
		return nil, types.NewRepositoryError(backendName, "update", err)
	}
	return types.NewDataset(name, next), nil
}

// Delete removes the catalog row, returning true on success. A row whose
// descriptor column does not parse cannot be resolved and reports
// ErrNoSuchDataset without being removed.
func (r *Registry) Delete(name string) (bool, error) {
	if err := types.ValidateName(name); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var descJSON string
	err := r.db.QueryRow("SELECT descriptor FROM datasets WHERE name = ?", name).Scan(&descJSON)
	if err == sql.ErrNoRows {
		return false, fmt.Errorf("%w: %q", types.ErrNoSuchDataset, name)
	}
	if err != nil {
		return false, types.NewRepositoryError(backendName, "delete", err)
	}
	var desc types.Descriptor
	if err := json.Unmarshal([]byte(descJSON), &desc); err != nil {
		return false, fmt.Errorf("%w: %q: metadata cannot be resolved", types.ErrNoSuchDataset, name)
	}

	if _, err := r.db.Exec("DELETE FROM datasets WHERE name = ?", name); err != nil {
		return false, types.NewRepositoryError(backendName, "delete", err)
	}
	if err := r.persistJSONL(); err != nil {
		return false, types.NewRepositoryError(backendName, "delete", err)
	}
	return true, nil
}

// Exists reports catalog membership.
func (r *Registry) Exists(name string) (bool, error) {
	if err := types.ValidateName(name); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var one int
	err := r.db.QueryRow("SELECT 1 FROM datasets WHERE name = ?", name).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, types.NewRepositoryError(backendName, "exists", err)
	}
	return true, nil
}

// List returns all dataset names in the catalog.
func (r *Registry) List() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.Query("SELECT name FROM datasets ORDER BY name")
	if err != nil {
		return nil, types.NewRepositoryError(backendName, "list", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, types.NewRepositoryError(backendName, "list", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewRepositoryError(backendName, "list", err)
	}
	return names, nil
}

// selectDescriptor reads and parses one dataset's descriptor column. The
// caller must hold r.mu (read or write).
func (r *Registry) selectDescriptor(name, op string) (types.Descriptor, error) {
	var descJSON string
	err := r.db.QueryRow("SELECT descriptor FROM datasets WHERE name = ?", name).Scan(&descJSON)
	if err == sql.ErrNoRows {
		return types.Descriptor{}, fmt.Errorf("%w: %q", types.ErrNoSuchDataset, name)
	}
	if err != nil {
		return types.Descriptor{}, types.NewRepositoryError(backendName, op, err)
	}
	var desc types.Descriptor
	if err := json.Unmarshal([]byte(descJSON), &desc); err != nil {
		return types.Descriptor{}, types.NewRepositoryError(backendName, op,
			fmt.Errorf("parsing descriptor for %q: %w", name, err))
	}
	return desc, nil
}

// reconcile rebuilds the catalog from the JSONL mirror when the database
// holds no rows but a mirror is present, e.g. after a fresh clone.
func (r *Registry) reconcile() error {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM datasets").Scan(&count); err != nil {
		return fmt.Errorf("counting datasets: %w", err)
	}
	if count > 0 {
		return nil
	}

	records, err := readCatalogJSONL(filepath.Join(r.dataDir, catalogJSONL))
	if err != nil {
		return err
	}
	for _, rec := range records {
		descJSON, err := json.Marshal(rec.Descriptor)
		if err != nil {
			return fmt.Errorf("encoding descriptor for %q: %w", rec.Name, err)
		}
		if _, err := r.db.Exec(
			"INSERT INTO datasets (dataset_id, name, descriptor, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			rec.DatasetID, rec.Name, string(descJSON), rec.CreatedAt, rec.UpdatedAt); err != nil {
			return fmt.Errorf("restoring %q from mirror: %w", rec.Name, err)
		}
	}
	return nil
}

// persistJSONL rewrites the datasets.jsonl mirror from the catalog rows.
// The caller must hold r.mu for writing.
func (r *Registry) persistJSONL() error {
	rows, err := r.db.Query(
		"SELECT dataset_id, name, descriptor, created_at, updated_at FROM datasets ORDER BY name")
	if err != nil {
		return fmt.Errorf("reading datasets for mirror: %w", err)
	}
	defer rows.Close()

	var records []catalogRecord
	for rows.Next() {
		var rec catalogRecord
		var descJSON string
		if err := rows.Scan(&rec.DatasetID, &rec.Name, &descJSON, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return fmt.Errorf("scanning dataset for mirror: %w", err)
		}
		if err := json.Unmarshal([]byte(descJSON), &rec.Descriptor); err != nil {
			return fmt.Errorf("parsing descriptor for mirror: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeCatalogJSONL(filepath.Join(r.dataDir, catalogJSONL), records)
}

// isConstraintViolation reports whether err is a SQLITE_CONSTRAINT failure,
// such as an INSERT hitting the primary key on name.
func isConstraintViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

// newUUID generates a UUID v7 string, falling back to v4 if the clock
// source fails.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
