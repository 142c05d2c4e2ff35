// Package homology holds the domain model for the assembly homology
// service: namespaces of pre-sketched sequence collections, the metadata
// stored for each sequence, and the match results returned to callers.
package homology

import (
	"fmt"
	"time"

	"github.com/scanon/AssemblyHomologyService/pkg/minhash"
)

// maxNameLength bounds namespace and load IDs.
const maxNameLength = 256

// SketchInfo describes the sketch database backing a namespace as recorded
// in storage. The implementation name never changes after the namespace is
// created.
type SketchInfo struct {
	// Implementation is the MinHash implementation the database was built
	// with, e.g. "mash".
	Implementation string `json:"implementation"`

	// Parameters are the sketch construction parameters.
	Parameters minhash.Parameters `json:"parameters"`

	// Location is where the sketch database lives. Either a local path or a
	// URL resolvable by the configured sketch store.
	Location string `json:"-"`

	// Sequences is the number of sketched sequences in the database.
	Sequences int `json:"sequence_count"`
}

// Namespace is a named, versioned collection of pre-built sequence sketches.
// Namespaces are created by the loader and read-only to the engine.
type Namespace struct {
	// ID uniquely identifies the namespace. Human assigned.
	ID string `json:"id"`

	// LoadID identifies the data load behind the namespace. Sequence
	// metadata is keyed by (namespace, load), so queries always join against
	// the load the sketches came from.
	LoadID string `json:"load_id"`

	// Description is free text about the namespace's contents.
	Description string `json:"description,omitempty"`

	// Modified is when the namespace record was last written.
	Modified time.Time `json:"modified"`

	// Sketch describes the namespace's sketch database.
	Sketch SketchInfo `json:"sketch"`
}

// SequenceMetadata is the stored descriptive record for one sketched
// sequence.
type SequenceMetadata struct {
	// ID is the sequence ID as it appears in the sketch database.
	ID string `json:"id"`

	// SourceID is the ID of the sequence at the data source.
	SourceID string `json:"source_id"`

	// ScientificName is the scientific name of the organism, if known.
	ScientificName string `json:"scientific_name,omitempty"`

	// RelatedIDs maps related ID types (e.g. "NCBI") to their values.
	RelatedIDs map[string]string `json:"related_ids,omitempty"`
}

// SequenceMatch joins one distance measurement to the namespace it came from
// and the stored metadata for the matched sequence.
type SequenceMatch struct {
	NamespaceID string           `json:"namespace_id"`
	Distance    minhash.Distance `json:"distance"`
	Metadata    SequenceMetadata `json:"metadata"`
}

// SequenceMatches is the complete result of measuring a query sketch against
// a set of namespaces. Constructed once per request, never mutated after.
type SequenceMatches struct {
	// Namespaces are the namespaces that were consulted.
	Namespaces []Namespace `json:"namespaces"`

	// Implementation describes the MinHash implementation that computed the
	// distances, version included.
	Implementation minhash.Info `json:"implementation"`

	// Matches are the joined distance measurements, ascending by distance
	// with ties broken by namespace then sequence ID.
	Matches []SequenceMatch `json:"matches"`

	// Warnings are deduplicated, namespace-prefixed compatibility warnings
	// collected under lenient comparison mode.
	Warnings []string `json:"warnings,omitempty"`
}

// ValidateName checks a namespace or load ID: 1-256 characters from
// [A-Za-z0-9_].
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("name exceeds %d characters", maxNameLength)
	}
	for _, r := range name {
		if !isNameRune(r) {
			return fmt.Errorf("illegal character in name %q: %q", name, r)
		}
	}
	return nil
}

func isNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_':
		return true
	}
	return false
}
