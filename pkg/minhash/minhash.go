// Package minhash defines the driver interface for pluggable MinHash
// implementations and the value types they exchange. Concrete drivers wrap
// external sketching tools (e.g. Mash) and are selected at runtime by the
// implementation name stored with each namespace.
package minhash

import "context"

// QueryDBName is the reserved sketch database name given to the query
// sketch. It cannot collide with a namespace ID because angle brackets are
// not legal in namespace names.
const QueryDBName = "<query>"

// Parameters describes how the sketches in a database were constructed.
// Two databases are directly comparable only when their parameters agree.
type Parameters struct {
	// KmerSize is the k-mer length used when sketching.
	KmerSize int `json:"kmer_size"`

	// SketchSize is the number of hashes retained per sketch.
	SketchSize int `json:"sketch_size"`

	// Scaling is the scaling factor for scaled-sketch implementations.
	// Zero for implementations that use a fixed sketch size.
	Scaling int `json:"scaling,omitempty"`
}

// SketchDatabase describes one sketch database: either a namespace's stored
// database or the transient query database built for a single request.
type SketchDatabase struct {
	// Name identifies the database. For namespace databases this is the
	// namespace ID; for the request query it is QueryDBName.
	Name string

	// Implementation is the name of the driver that built the database.
	Implementation string

	// Parameters are the sketch construction parameters.
	Parameters Parameters

	// Location is the local filesystem path of the database.
	Location string

	// Sequences is the number of sketched sequences in the database.
	Sequences int
}

// Distance is a single nearest-neighbor measurement between the query and
// one sequence in a reference database.
type Distance struct {
	// ReferenceDB is the name of the database containing the matched
	// sequence (a namespace ID).
	ReferenceDB string `json:"namespace_id"`

	// SequenceID identifies the matched sequence within the reference
	// database.
	SequenceID string `json:"sequence_id"`

	// Distance is the implementation-reported distance estimate. Lower is
	// more similar.
	Distance float64 `json:"distance"`
}

// Info describes a concrete implementation, including any version string the
// underlying tool reports.
type Info struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ImplementationFactory builds Implementation instances. One factory per
// implementation name is registered with the engine at construction time.
type ImplementationFactory interface {
	// ImplementationName returns the name of the implementation, e.g. "mash".
	ImplementationName() string

	// ExpectedFileExtension returns the file extension the implementation
	// expects for sketch files, or "" if there is no convention. Advisory
	// only; never used for validation.
	ExpectedFileExtension() string

	// GetImplementation creates an implementation instance that may write
	// scratch files under tempDir. Returns an InitError if the underlying
	// tool is missing or unusable.
	GetImplementation(tempDir string) (Implementation, error)
}

// Implementation computes sketch distances via an external tool.
type Implementation interface {
	// Info returns the implementation name and the version reported by the
	// underlying tool.
	Info() Info

	// GetDatabase loads and validates a sketch database from a local file.
	// Returns a NotASketchError if the file is not a well-formed sketch of
	// this implementation's format.
	GetDatabase(ctx context.Context, name, location string) (*SketchDatabase, error)

	// CheckQueryCompatibility reports whether the query database can be
	// measured against the reference database. Under strict mode parameters
	// must match exactly. Under lenient mode the implementation may accept
	// parameter drift it can work around, returning advisory warnings
	// instead. An IncompatibleSketchesError means the mismatch cannot be
	// resolved in either mode.
	CheckQueryCompatibility(ref, query *SketchDatabase, strict bool) ([]string, error)

	// ComputeDistance measures the query against all reference databases and
	// returns at most maxReturn of the smallest distances across the whole
	// reference set, along with any warnings the tool emitted.
	ComputeDistance(ctx context.Context, query *SketchDatabase, refs []*SketchDatabase, maxReturn int, strict bool) ([]Distance, []string, error)
}
