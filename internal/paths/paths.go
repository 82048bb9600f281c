// Package paths resolves configuration and data directory locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appDirName is the per-application directory created under the
// platform's config and data roots.
const appDirName = "datakeep"

// CWD-relative directory names.
const (
	DefaultConfigDirName = ".datakeep"
	DefaultDataDirName   = ".datakeep-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "DATAKEEP_CONFIG_DIR"
	EnvDataDir   = "DATAKEEP_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/datakeep (fallback ~/.config/datakeep)
// macOS:   ~/Library/Application Support/datakeep
// Windows: %APPDATA%/datakeep
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	return platformConfigDir()
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/datakeep (fallback ~/.local/share/datakeep)
// macOS:   ~/Library/Application Support/datakeep
// Windows: %APPDATA%/datakeep
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	}
	return platformConfigDir()
}

// xdgDir resolves an XDG base directory, falling back to the conventional
// home-relative path when the environment variable is unset.
func xdgDir(envVar, homeFallback string) (string, error) {
	if xdg := os.Getenv(envVar); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeFallback, appDirName), nil
}

// platformConfigDir wraps os.UserConfigDir, which returns
// ~/Library/Application Support on macOS and %APPDATA% on Windows.
// Both platforms keep config and data in the same place.
func platformConfigDir() (string, error) {
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName), nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > DATAKEEP_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configYAMLValue > DATAKEEP_DATA_DIR env > CWD-relative default.
//
// The CWD-relative default ($(CWD)/.datakeep-db) keeps a registry local to
// the project directory it is created in, which is the primary usage mode.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
