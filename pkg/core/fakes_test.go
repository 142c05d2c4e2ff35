package core_test

import (
	"context"
	"fmt"

	"github.com/scanon/AssemblyHomologyService/pkg/minhash"
)

// fakeStore resolves every location to itself, so tests can use arbitrary
// strings as sketch locations.
type fakeStore struct {
	resolved []string
	err      error
}

func (s *fakeStore) Resolve(_ context.Context, location string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.resolved = append(s.resolved, location)
	return location, nil
}

// fakeFactory hands out a canned implementation and records instantiations.
type fakeFactory struct {
	name      string
	extension string
	impl      *fakeImplementation
	initErr   error

	getCalls []string
}

func (f *fakeFactory) ImplementationName() string    { return f.name }
func (f *fakeFactory) ExpectedFileExtension() string { return f.extension }

func (f *fakeFactory) GetImplementation(tempDir string) (minhash.Implementation, error) {
	f.getCalls = append(f.getCalls, tempDir)
	if f.initErr != nil {
		return nil, f.initErr
	}
	return f.impl, nil
}

// fakeImplementation serves canned sketch databases, compatibility results
// and distances, recording every capability invocation.
type fakeImplementation struct {
	info minhash.Info

	// databases maps location to the database GetDatabase returns for it.
	databases map[string]*minhash.SketchDatabase
	getDBErr  error

	// compatErr and compatWarnings apply to every CheckQueryCompatibility
	// call unless compatErrFor limits the error to one reference name.
	compatErr      error
	compatErrFor   string
	compatWarnings []string

	distances    []minhash.Distance
	distWarnings []string
	distErr      error

	getDBCalls   []string
	compatCalls  []string
	computeCalls int
	lastRefs     []*minhash.SketchDatabase
	lastCount    int
	lastStrict   bool
}

func (m *fakeImplementation) Info() minhash.Info { return m.info }

func (m *fakeImplementation) GetDatabase(
	_ context.Context, name, location string,
) (*minhash.SketchDatabase, error) {
	m.getDBCalls = append(m.getDBCalls, location)
	if m.getDBErr != nil {
		return nil, m.getDBErr
	}
	db, ok := m.databases[location]
	if !ok {
		return nil, fmt.Errorf("no canned database for %s", location)
	}
	copied := *db
	copied.Name = name
	return &copied, nil
}

func (m *fakeImplementation) CheckQueryCompatibility(
	ref, query *minhash.SketchDatabase, strict bool,
) ([]string, error) {
	m.compatCalls = append(m.compatCalls, ref.Name)
	m.lastStrict = strict
	if m.compatErr != nil && (m.compatErrFor == "" || m.compatErrFor == ref.Name) {
		return nil, m.compatErr
	}
	return m.compatWarnings, nil
}

func (m *fakeImplementation) ComputeDistance(
	_ context.Context,
	query *minhash.SketchDatabase,
	refs []*minhash.SketchDatabase,
	maxReturn int,
	strict bool,
) ([]minhash.Distance, []string, error) {
	m.computeCalls++
	m.lastRefs = refs
	m.lastCount = maxReturn
	m.lastStrict = strict
	if m.distErr != nil {
		return nil, nil, m.distErr
	}
	dists := m.distances
	if len(dists) > maxReturn {
		dists = dists[:maxReturn]
	}
	return dists, m.distWarnings, nil
}
