package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Path resolution constants.
const (
	envCacheDir   = "CACHE_DIR"
	appName       = "voice-bridge"
	modelsDirName = "models"
	dotCache      = ".cache"
	tmpDir        = "/tmp"
)

// ErrModelNotFound is returned when a model file cannot be located in any of
// the standard search locations.
var ErrModelNotFound = errors.New("model not found")

// ResolveModelPath resolves the absolute path to a model file by checking a
// prioritized list of locations: the name itself (absolute or relative), a
// local models directory, and the application cache.
func ResolveModelPath(name string) (string, error) {
	candidates := []string{
		name,
		filepath.Join(modelsDirName, name),
		filepath.Join(cacheDir(), modelsDirName, name),
	}

	for _, candidate := range candidates {
		resolved, found, err := statPath(candidate)
		if err != nil {
			return "", err
		}

		if found {
			return resolved, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrModelNotFound, name)
}

// cacheDir returns the application cache directory, honoring the CACHE_DIR
// override and falling back to the user's .cache.
func cacheDir() string {
	if dir := os.Getenv(envCacheDir); dir != "" {
		return dir
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(tmpDir, appName)
	}

	return filepath.Join(homeDir, dotCache, appName)
}

// statPath reports whether a file exists at path, returning its absolute
// form when it does. A missing file is not an error; anything else is.
func statPath(path string) (resolved string, found bool, err error) {
	_, statErr := os.Stat(path)
	if statErr == nil {
		absPath, absErr := filepath.Abs(path)
		if absErr != nil {
			return "", false, fmt.Errorf("could not resolve absolute path for %q: %w", path, absErr)
		}

		return absPath, true, nil
	}

	if !os.IsNotExist(statErr) {
		return "", false, fmt.Errorf("error checking model path %q: %w", path, statErr)
	}

	return "", false, nil
}
