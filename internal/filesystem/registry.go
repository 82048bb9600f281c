// Package filesystem implements a dataset registry rooted in a directory
// tree. Each dataset is a directory under the root; its descriptor lives at
// <name>/.metadata/descriptor.json. The backend is built on afero so the
// same code runs against the OS filesystem and an in-memory filesystem.
package filesystem

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/mesh-intelligence/datakeep/pkg/types"
)

const (
	backendName    = "filesystem"
	metadataDir    = ".metadata"
	descriptorFile = "descriptor.json"
)

// errCorruptDescriptor marks a descriptor file that exists but does not
// parse. Delete folds it into ErrNoSuchDataset; Load surfaces it as a
// storage fault.
var errCorruptDescriptor = errors.New("corrupt descriptor")

// Registry is a filesystem-backed catalog. The root and filesystem are
// fixed at construction; only the directory tree underneath evolves.
type Registry struct {
	fs   afero.Fs
	root string

	// mu serializes mutating operations. Creates additionally rely on
	// Mkdir failing for an existing directory, which keeps the
	// one-winner guarantee even across processes sharing the root.
	mu sync.Mutex
}

// New opens a registry rooted at root on the OS filesystem, creating the
// root directory if needed.
func New(root string) (*Registry, error) {
	return NewWithFs(afero.NewOsFs(), root)
}

// NewWithFs opens a registry rooted at root on the given filesystem.
func NewWithFs(fsys afero.Fs, root string) (*Registry, error) {
	if root == "" {
		return nil, types.ErrDataDirEmpty
	}
	if err := fsys.MkdirAll(root, 0o755); err != nil {
		return nil, types.NewRepositoryError(backendName, "open", err)
	}
	return &Registry{fs: fsys, root: root}, nil
}

// Load returns a handle bound to the dataset's stored descriptor.
func (r *Registry) Load(name string) (*types.Dataset, error) {
	if err := types.ValidateName(name); err != nil {
		return nil, err
	}
	desc, err := r.readDescriptor(name, "load")
	if err != nil {
		return nil, err
	}
	return types.NewDataset(name, desc), nil
}

// Create claims the dataset directory and writes the descriptor. Mkdir on
// an existing directory fails, so concurrent creates for one name resolve
// to a single winner; a failed descriptor write rolls the directory back.
func (r *Registry) Create(name string, descriptor types.Descriptor) (*types.Dataset, error) {
	if err := types.ValidateName(name); err != nil {
		return nil, err
	}
	if err := descriptor.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dir := r.datasetDir(name)
	if err := r.fs.Mkdir(dir, 0o755); err != nil {
		if os.IsExist(err) {
			// A regular file squatting on the path is not a dataset;
			// Exists reports false for it, so create must not claim a
			// duplicate either.
			if isDir, statErr := afero.DirExists(r.fs, dir); statErr == nil && !isDir {
				return nil, types.NewRepositoryError(backendName, "create",
					fmt.Errorf("%q exists and is not a directory", dir))
			}
			return nil, fmt.Errorf("%w: %q", types.ErrDatasetExists, name)
		}
		return nil, types.NewRepositoryError(backendName, "create", err)
	}

	stored := descriptor.Normalized()
	if err := r.writeDescriptor(name, stored); err != nil {
		_ = r.fs.RemoveAll(dir)
		return nil, types.NewRepositoryError(backendName, "create", err)
	}
	return types.NewDataset(name, stored), nil
}

// Update rewrites the descriptor through a temp-file rename, so a rejected
// or failed update leaves the stored descriptor untouched.
func (r *Registry) Update(name string, descriptor types.Descriptor) (*types.Dataset, error) {
	if err := types.ValidateName(name); err != nil {
		return nil, err
	}
	if err := descriptor.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.readDescriptor(name, "update")
	if err != nil {
		return nil, err
	}
	next, err := types.MergeUpdate(current, descriptor)
	if err != nil {
		return nil, err
	}
	if err := r.writeDescriptor(name, next); err != nil {
		return nil, types.NewRepositoryError(backendName, "update", err)
	}
	return types.NewDataset(name, next), nil
}

// Delete removes the dataset directory and everything under it. A dataset
// directory whose descriptor is missing or unreadable cannot be resolved
// and reports ErrNoSuchDataset, same as an absent name.
func (r *Registry) Delete(name string) (bool, error) {
	if err := types.ValidateName(name); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dir := r.datasetDir(name)
	ok, err := afero.DirExists(r.fs, dir)
	if err != nil {
		return false, types.NewRepositoryError(backendName, "delete", err)
	}
	if !ok {
		return false, fmt.Errorf("%w: %q", types.ErrNoSuchDataset, name)
	}
	if _, err := r.readDescriptor(name, "delete"); err != nil {
		if errors.Is(err, types.ErrNoSuchDataset) || errors.Is(err, errCorruptDescriptor) {
			return false, fmt.Errorf("%w: %q: metadata cannot be resolved", types.ErrNoSuchDataset, name)
		}
		return false, err
	}
	if err := r.fs.RemoveAll(dir); err != nil {
		return false, types.NewRepositoryError(backendName, "delete", err)
	}
	return true, nil
}

// Exists reports whether the dataset directory is present.
func (r *Registry) Exists(name string) (bool, error) {
	if err := types.ValidateName(name); err != nil {
		return false, err
	}
	ok, err := afero.DirExists(r.fs, r.datasetDir(name))
	if err != nil {
		return false, types.NewRepositoryError(backendName, "exists", err)
	}
	return ok, nil
}

// List returns the dataset directory names under the root.
func (r *Registry) List() ([]string, error) {
	infos, err := afero.ReadDir(r.fs, r.root)
	if err != nil {
		return nil, types.NewRepositoryError(backendName, "list", err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if !info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			continue
		}
		names = append(names, info.Name())
	}
	return names, nil
}

func (r *Registry) datasetDir(name string) string {
	return path.Join(r.root, name)
}

func (r *Registry) descriptorPath(name string) string {
	return path.Join(r.root, name, metadataDir, descriptorFile)
}

// readDescriptor loads and parses the stored descriptor. A missing dataset
// directory or descriptor file is ErrNoSuchDataset; anything else is a
// storage fault.
func (r *Registry) readDescriptor(name, op string) (types.Descriptor, error) {
	data, err := afero.ReadFile(r.fs, r.descriptorPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return types.Descriptor{}, fmt.Errorf("%w: %q", types.ErrNoSuchDataset, name)
		}
		return types.Descriptor{}, types.NewRepositoryError(backendName, op, err)
	}
	var desc types.Descriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return types.Descriptor{}, types.NewRepositoryError(backendName, op,
			fmt.Errorf("%w for %q: %v", errCorruptDescriptor, name, err))
	}
	return desc, nil
}

// writeDescriptor persists the descriptor with the temp-file, sync, rename
// pattern so readers only ever observe a complete document.
func (r *Registry) writeDescriptor(name string, desc types.Descriptor) error {
	dir := path.Join(r.datasetDir(name), metadataDir)
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating metadata dir: %w", err)
	}

	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding descriptor: %w", err)
	}

	tmp, err := afero.TempFile(r.fs, dir, ".descriptor-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		r.fs.Remove(tmpName)
		return fmt.Errorf("writing descriptor: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		r.fs.Remove(tmpName)
		return fmt.Errorf("syncing descriptor: %w", err)
	}
	if err := tmp.Close(); err != nil {
		r.fs.Remove(tmpName)
		return fmt.Errorf("closing descriptor: %w", err)
	}
	if err := r.fs.Rename(tmpName, r.descriptorPath(name)); err != nil {
		r.fs.Remove(tmpName)
		return fmt.Errorf("renaming descriptor: %w", err)
	}
	return nil
}
