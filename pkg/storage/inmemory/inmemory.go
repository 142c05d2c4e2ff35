// Package inmemory provides a map-backed storage driver, used for tests and
// single-process development setups.
package inmemory

import (
	"context"
	"sync"

	"github.com/scanon/AssemblyHomologyService/pkg/homology"
	"github.com/scanon/AssemblyHomologyService/pkg/storage"
)

type loadKey struct {
	namespaceID string
	loadID      string
}

// Driver implements storage.Driver using in-memory maps.
type Driver struct {
	// mu guards both maps. Reads dominate in serving; writes only happen
	// through the loader.
	mu sync.RWMutex

	namespaces map[string]homology.Namespace
	sequences  map[loadKey]map[string]homology.SequenceMetadata
}

// NewDriver creates a new in-memory storage driver.
func NewDriver() *Driver {
	return &Driver{
		namespaces: make(map[string]homology.Namespace),
		sequences:  make(map[loadKey]map[string]homology.SequenceMetadata),
	}
}

// GetNamespaces returns all stored namespaces.
func (d *Driver) GetNamespaces(_ context.Context) ([]homology.Namespace, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	namespaces := make([]homology.Namespace, 0, len(d.namespaces))
	for _, ns := range d.namespaces {
		namespaces = append(namespaces, ns)
	}
	return namespaces, nil
}

// GetNamespace retrieves a namespace by ID.
func (d *Driver) GetNamespace(_ context.Context, id string) (homology.Namespace, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ns, ok := d.namespaces[id]
	if !ok {
		return homology.Namespace{}, storage.NoSuchNamespaceError{ID: id}
	}
	return ns, nil
}

// SaveNamespace creates or replaces a namespace record.
func (d *Driver) SaveNamespace(_ context.Context, ns homology.Namespace) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.namespaces[ns.ID] = ns
	return nil
}

// GetSequenceMetadata retrieves metadata for the given sequence IDs within
// one namespace load.
func (d *Driver) GetSequenceMetadata(
	_ context.Context,
	namespaceID, loadID string,
	sequenceIDs []string,
) ([]homology.SequenceMetadata, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	load := d.sequences[loadKey{namespaceID: namespaceID, loadID: loadID}]

	var missing []string
	metas := make([]homology.SequenceMetadata, 0, len(sequenceIDs))
	for _, id := range sequenceIDs {
		meta, ok := load[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		metas = append(metas, meta)
	}
	if len(missing) > 0 {
		return nil, storage.NoSuchSequenceError{
			NamespaceID: namespaceID,
			LoadID:      loadID,
			SequenceIDs: missing,
		}
	}
	return metas, nil
}

// SaveSequenceMetadata creates or replaces metadata records for a namespace
// load.
func (d *Driver) SaveSequenceMetadata(
	_ context.Context,
	namespaceID, loadID string,
	metas []homology.SequenceMetadata,
) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := loadKey{namespaceID: namespaceID, loadID: loadID}
	load, ok := d.sequences[key]
	if !ok {
		load = make(map[string]homology.SequenceMetadata, len(metas))
		d.sequences[key] = load
	}
	for _, meta := range metas {
		load[meta.ID] = meta
	}
	return nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error { return nil }
