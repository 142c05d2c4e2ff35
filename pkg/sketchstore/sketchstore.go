// Package sketchstore resolves stored sketch-database locations to local
// file paths. MinHash binaries only operate on local files, so namespaces
// whose sketch databases live in object storage are materialized into a
// cache directory before use.
package sketchstore

import (
	"context"
	"fmt"
	"os"
)

// ErrNotFound is returned when a sketch database does not exist at its
// recorded location.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store resolves a sketch database location to a local file path.
type Store interface {
	// Resolve returns a local path holding the sketch database at location,
	// fetching it if necessary. The returned path stays valid for the
	// lifetime of the store.
	Resolve(ctx context.Context, location string) (string, error)
}

// LocalStore implements Store for sketch databases already on the local
// filesystem.
type LocalStore struct{}

// NewLocalStore creates a pass-through store for local sketch paths.
func NewLocalStore() *LocalStore {
	return &LocalStore{}
}

// Resolve verifies the path exists and returns it unchanged.
func (s *LocalStore) Resolve(_ context.Context, location string) (string, error) {
	info, err := os.Stat(location)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("sketch database %s: %w", location, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("sketch database %s: %w", location, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("sketch database %s is a directory", location)
	}
	return location, nil
}
