// Package mash provides the Mash MinHash implementation driver. It shells
// out to the mash binary (https://mash.readthedocs.io) for sketch inspection
// and distance computation.
package mash

import (
	"context"
	"fmt"
	"sort"

	"github.com/scanon/AssemblyHomologyService/pkg/minhash"
)

const implementationName = "mash"

// Factory builds Mash implementation instances.
type Factory struct {
	execPath string
}

// NewFactory creates a Mash factory using the given mash executable path.
// Pass "" to find mash on the PATH.
func NewFactory(execPath string) *Factory {
	if execPath == "" {
		execPath = "mash"
	}
	return &Factory{execPath: execPath}
}

// ImplementationName returns "mash".
func (f *Factory) ImplementationName() string { return implementationName }

// ExpectedFileExtension returns "msh", the conventional Mash sketch
// extension.
func (f *Factory) ExpectedFileExtension() string { return "msh" }

// GetImplementation verifies the mash binary is runnable and returns an
// implementation instance scoped to tempDir.
func (f *Factory) GetImplementation(tempDir string) (minhash.Implementation, error) {
	return newImplementation(&execRunner{execPath: f.execPath}, tempDir)
}

// Implementation runs mash commands. Instances are request-scoped and
// inexpensive; the version probe is the only setup cost.
type Implementation struct {
	run     runner
	tempDir string
	version string
}

func newImplementation(run runner, tempDir string) (*Implementation, error) {
	// mash with no arguments prints its usage banner, version included, and
	// exits non-zero. Treat a start failure as the binary being unusable.
	stdout, stderr, err := run.Run(context.Background())
	banner := stdout + stderr
	version := parseVersion(banner)
	if err != nil && version == "unknown" {
		return nil, minhash.InitError{Implementation: implementationName, Err: err}
	}

	return &Implementation{
		run:     run,
		tempDir: tempDir,
		version: version,
	}, nil
}

// Info returns the implementation name and the mash binary's version.
func (m *Implementation) Info() minhash.Info {
	return minhash.Info{Name: implementationName, Version: m.version}
}

// GetDatabase loads sketch parameters and the sequence count from a sketch
// file via `mash info -H`.
func (m *Implementation) GetDatabase(ctx context.Context, name, location string) (*minhash.SketchDatabase, error) {
	stdout, stderr, err := m.run.Run(ctx, "info", "-H", location)
	if err != nil {
		return nil, minhash.NotASketchError{Path: location, Stderr: stderr}
	}

	params, sequences, err := parseInfoHeader(stdout)
	if err != nil {
		return nil, minhash.NotASketchError{Path: location, Stderr: stdout}
	}

	return &minhash.SketchDatabase{
		Name:           name,
		Implementation: implementationName,
		Parameters:     params,
		Location:       location,
		Sequences:      sequences,
	}, nil
}

// CheckQueryCompatibility applies Mash's comparability rules. K-mer sizes
// must always match. A query sketch size larger than the reference's is
// workable in lenient mode (mash only considers the smaller hash count) but
// reported as a warning; a smaller query sketch size reduces result accuracy
// below what the reference guarantees and is never allowed.
func (m *Implementation) CheckQueryCompatibility(ref, query *minhash.SketchDatabase, strict bool) ([]string, error) {
	if ref.Parameters.KmerSize != query.Parameters.KmerSize {
		return nil, minhash.IncompatibleSketchesError{
			Reason: fmt.Sprintf("kmer size for sketches are not compatible: %d %d",
				ref.Parameters.KmerSize, query.Parameters.KmerSize),
		}
	}

	refSize := ref.Parameters.SketchSize
	querySize := query.Parameters.SketchSize
	if querySize == refSize {
		return nil, nil
	}
	if querySize < refSize {
		return nil, minhash.IncompatibleSketchesError{
			Reason: fmt.Sprintf("query sketch size %d may not be smaller than the target sketch size %d",
				querySize, refSize),
		}
	}
	if strict {
		return nil, minhash.IncompatibleSketchesError{
			Reason: fmt.Sprintf("query sketch size %d does not match target sketch size %d",
				querySize, refSize),
		}
	}

	return []string{fmt.Sprintf("Query sketch size %d is larger than target sketch size %d",
		querySize, refSize)}, nil
}

// ComputeDistance measures the query against every reference database with
// `mash dist` and returns the maxReturn smallest distances across the whole
// set, ordered ascending with ties broken by database then sequence ID.
func (m *Implementation) ComputeDistance(
	ctx context.Context,
	query *minhash.SketchDatabase,
	refs []*minhash.SketchDatabase,
	maxReturn int,
	strict bool,
) ([]minhash.Distance, []string, error) {
	var (
		dists    []minhash.Distance
		warnings []string
	)

	for _, ref := range refs {
		warn, err := m.CheckQueryCompatibility(ref, query, strict)
		if err != nil {
			return nil, nil, fmt.Errorf("reference database %s: %w", ref.Name, err)
		}
		warnings = append(warnings, warn...)

		stdout, stderr, err := m.run.Run(ctx, "dist", ref.Location, query.Location)
		if err != nil {
			return nil, nil, fmt.Errorf("running mash dist against %s: %w (stderr: %s)",
				ref.Name, err, stderr)
		}
		warnings = append(warnings, warningLines(stderr)...)

		refDists, err := parseDistLines(stdout, ref.Name)
		if err != nil {
			return nil, nil, fmt.Errorf("reference database %s: %w", ref.Name, err)
		}
		dists = append(dists, refDists...)
	}

	sort.Slice(dists, func(i, j int) bool {
		a, b := dists[i], dists[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if a.ReferenceDB != b.ReferenceDB {
			return a.ReferenceDB < b.ReferenceDB
		}
		return a.SequenceID < b.SequenceID
	})
	if len(dists) > maxReturn {
		dists = dists[:maxReturn]
	}

	return dists, warnings, nil
}
