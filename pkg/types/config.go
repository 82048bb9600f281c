package types

import "errors"

// Config holds backend selection and parameters for opening a Registry.
// A Config is consumed once at construction; registries never re-read it.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// Supported backend names.
const (
	BackendSQLite     = "sqlite"
	BackendFilesystem = "filesystem"
	BackendMemory     = "memory"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrDataDirEmpty   = errors.New("data directory must not be empty")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite:     true,
	BackendFilesystem: true,
	BackendMemory:     true,
}

// Validate checks that the Config is well-formed. The memory backend needs
// no data directory; the persistent backends do.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend != BackendMemory && c.DataDir == "" {
		return ErrDataDirEmpty
	}
	return nil
}
