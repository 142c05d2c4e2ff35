// Package sqlite provides a SQLite-backed storage driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver

	"github.com/scanon/AssemblyHomologyService/pkg/homology"
	"github.com/scanon/AssemblyHomologyService/pkg/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS namespaces (
	id              TEXT PRIMARY KEY,
	load_id         TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	modified        TIMESTAMP NOT NULL,
	implementation  TEXT NOT NULL,
	kmer_size       INTEGER NOT NULL,
	sketch_size     INTEGER NOT NULL,
	scaling         INTEGER NOT NULL DEFAULT 0,
	location        TEXT NOT NULL,
	sequences       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sequence_metadata (
	namespace_id    TEXT NOT NULL,
	load_id         TEXT NOT NULL,
	sequence_id     TEXT NOT NULL,
	source_id       TEXT NOT NULL,
	scientific_name TEXT NOT NULL DEFAULT '',
	related_ids     TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (namespace_id, load_id, sequence_id)
);
`

// Driver implements storage.Driver using SQLite.
type Driver struct {
	db *sql.DB
}

// NewDriver creates a new SQLite-backed store. dbPath can be a file path or
// ":memory:" for an in-memory database.
func NewDriver(dbPath string) (*Driver, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite-specific pragmas
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Driver{db: db}, nil
}

// GetNamespaces returns all stored namespaces.
func (d *Driver) GetNamespaces(ctx context.Context) ([]homology.Namespace, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, load_id, description, modified, implementation,
		       kmer_size, sketch_size, scaling, location, sequences
		FROM namespaces`)
	if err != nil {
		return nil, fmt.Errorf("querying namespaces: %w", err)
	}
	defer rows.Close()

	var namespaces []homology.Namespace
	for rows.Next() {
		ns, err := scanNamespace(rows)
		if err != nil {
			return nil, err
		}
		namespaces = append(namespaces, ns)
	}
	return namespaces, rows.Err()
}

// GetNamespace retrieves a namespace by ID.
func (d *Driver) GetNamespace(ctx context.Context, id string) (homology.Namespace, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, load_id, description, modified, implementation,
		       kmer_size, sketch_size, scaling, location, sequences
		FROM namespaces WHERE id = ?`, id)

	ns, err := scanNamespace(row)
	if err == sql.ErrNoRows {
		return homology.Namespace{}, storage.NoSuchNamespaceError{ID: id}
	}
	if err != nil {
		return homology.Namespace{}, err
	}
	return ns, nil
}

// SaveNamespace creates or replaces a namespace record.
func (d *Driver) SaveNamespace(ctx context.Context, ns homology.Namespace) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO namespaces
			(id, load_id, description, modified, implementation,
			 kmer_size, sketch_size, scaling, location, sequences)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			load_id = excluded.load_id,
			description = excluded.description,
			modified = excluded.modified,
			implementation = excluded.implementation,
			kmer_size = excluded.kmer_size,
			sketch_size = excluded.sketch_size,
			scaling = excluded.scaling,
			location = excluded.location,
			sequences = excluded.sequences`,
		ns.ID, ns.LoadID, ns.Description, ns.Modified, ns.Sketch.Implementation,
		ns.Sketch.Parameters.KmerSize, ns.Sketch.Parameters.SketchSize,
		ns.Sketch.Parameters.Scaling, ns.Sketch.Location, ns.Sketch.Sequences)
	if err != nil {
		return fmt.Errorf("saving namespace %s: %w", ns.ID, err)
	}
	return nil
}

// GetSequenceMetadata retrieves metadata for the given sequence IDs within
// one namespace load.
func (d *Driver) GetSequenceMetadata(
	ctx context.Context,
	namespaceID, loadID string,
	sequenceIDs []string,
) ([]homology.SequenceMetadata, error) {
	found := make(map[string]homology.SequenceMetadata, len(sequenceIDs))
	for _, seqID := range sequenceIDs {
		row := d.db.QueryRowContext(ctx, `
			SELECT sequence_id, source_id, scientific_name, related_ids
			FROM sequence_metadata
			WHERE namespace_id = ? AND load_id = ? AND sequence_id = ?`,
			namespaceID, loadID, seqID)

		meta, err := scanSequenceMetadata(row)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, err
		}
		found[seqID] = meta
	}

	var missing []string
	metas := make([]homology.SequenceMetadata, 0, len(sequenceIDs))
	for _, seqID := range sequenceIDs {
		meta, ok := found[seqID]
		if !ok {
			missing = append(missing, seqID)
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
// load. All records are written in one transaction.
func (d *Driver) SaveSequenceMetadata(
	ctx context.Context,
	namespaceID, loadID string,
	metas []homology.SequenceMetadata,
) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, meta := range metas {
		related, err := json.Marshal(meta.RelatedIDs)
		if err != nil {
			return fmt.Errorf("encoding related IDs for sequence %s: %w", meta.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sequence_metadata
				(namespace_id, load_id, sequence_id, source_id, scientific_name, related_ids)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (namespace_id, load_id, sequence_id) DO UPDATE SET
				source_id = excluded.source_id,
				scientific_name = excluded.scientific_name,
				related_ids = excluded.related_ids`,
			namespaceID, loadID, meta.ID, meta.SourceID, meta.ScientificName, string(related))
		if err != nil {
			return fmt.Errorf("saving sequence %s: %w", meta.ID, err)
		}
	}

	return tx.Commit()
}

// Close closes the underlying database.
func (d *Driver) Close() error { return d.db.Close() }

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanNamespace(row scanner) (homology.Namespace, error) {
	var ns homology.Namespace
	err := row.Scan(
		&ns.ID, &ns.LoadID, &ns.Description, &ns.Modified,
		&ns.Sketch.Implementation, &ns.Sketch.Parameters.KmerSize,
		&ns.Sketch.Parameters.SketchSize, &ns.Sketch.Parameters.Scaling,
		&ns.Sketch.Location, &ns.Sketch.Sequences)
	if err == sql.ErrNoRows {
		return ns, err
	}
	if err != nil {
		return ns, fmt.Errorf("scanning namespace row: %w", err)
	}
	return ns, nil
}

func scanSequenceMetadata(row scanner) (homology.SequenceMetadata, error) {
	var (
		meta    homology.SequenceMetadata
		related string
	)
	err := row.Scan(&meta.ID, &meta.SourceID, &meta.ScientificName, &related)
	if err == sql.ErrNoRows {
		return meta, err
	}
	if err != nil {
		return meta, fmt.Errorf("scanning sequence metadata row: %w", err)
	}
	if related != "" && related != "{}" && related != "null" {
		if err := json.Unmarshal([]byte(related), &meta.RelatedIDs); err != nil {
			return meta, fmt.Errorf("decoding related IDs for sequence %s: %w", meta.ID, err)
		}
	}
	return meta, nil
}
