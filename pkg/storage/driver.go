// Package storage defines the interface for persisting and retrieving
// namespaces and sequence metadata in a storage backend.
package storage

import (
	"context"

	"github.com/scanon/AssemblyHomologyService/pkg/homology"
)

// Driver is the storage interface consumed by the engine and the loader.
// The engine only reads; the loader writes.
type Driver interface {
	// GetNamespaces returns all namespaces in the store.
	GetNamespaces(ctx context.Context) ([]homology.Namespace, error)

	// GetNamespace retrieves a namespace by ID. Returns a
	// NoSuchNamespaceError if the ID is unknown.
	GetNamespace(ctx context.Context, id string) (homology.Namespace, error)

	// SaveNamespace creates or replaces a namespace record.
	SaveNamespace(ctx context.Context, ns homology.Namespace) error

	// GetSequenceMetadata retrieves the metadata records for the given
	// sequence IDs within one namespace load. Returns a NoSuchSequenceError
	// if any requested ID is absent.
	GetSequenceMetadata(ctx context.Context, namespaceID, loadID string, sequenceIDs []string) ([]homology.SequenceMetadata, error)

	// SaveSequenceMetadata creates or replaces metadata records for a
	// namespace load.
	SaveSequenceMetadata(ctx context.Context, namespaceID, loadID string, metas []homology.SequenceMetadata) error

	// Close closes the store and releases any resources.
	Close() error
}
