// Package datakeep provides the public entry point for opening a dataset
// registry. Backend selection happens here, at construction time; the
// returned Registry is the pure contract and carries no backend details.
package datakeep

import (
	"io"

	"github.com/mesh-intelligence/datakeep/internal/filesystem"
	"github.com/mesh-intelligence/datakeep/internal/memory"
	"github.com/mesh-intelligence/datakeep/internal/sqlite"
	"github.com/mesh-intelligence/datakeep/pkg/types"
)

// Open validates cfg and constructs the registry backend it names.
//
// Example:
//
//	reg, err := datakeep.Open(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".datakeep-db",
//	})
//	defer datakeep.Close(reg)
func Open(cfg types.Config) (types.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case types.BackendSQLite:
		return sqlite.Open(cfg.DataDir)
	case types.BackendFilesystem:
		return filesystem.New(cfg.DataDir)
	default:
		return memory.New(), nil
	}
}

// Close releases backend resources for registries that hold any. The
// registry contract itself has no close step; backends that keep a
// connection additionally implement io.Closer.
func Close(reg types.Registry) error {
	if c, ok := reg.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
