// Package core implements the matching engine: it integrates namespace and
// sequence-metadata records from storage with the distances reported by a
// MinHash implementation when a query sketch is measured against the sketch
// databases of one or more namespaces.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/scanon/AssemblyHomologyService/pkg/homology"
	"github.com/scanon/AssemblyHomologyService/pkg/minhash"
	"github.com/scanon/AssemblyHomologyService/pkg/sketchstore"
	"github.com/scanon/AssemblyHomologyService/pkg/storage"
)

const (
	defaultReturn = 10
	maxReturn     = 100
)

// Engine coordinates storage, the sketch store and the registered MinHash
// implementations. Construct once; all state is immutable afterwards, so a
// single Engine serves any number of concurrent requests.
type Engine struct {
	storage  storage.Driver
	sketches sketchstore.Store
	impls    map[string]minhash.ImplementationFactory
	tempRoot string
	logger   *zap.Logger
}

// NewEngine creates an engine. One factory may be registered per
// implementation name (case-insensitive); duplicates are rejected. tempRoot
// is where per-request scratch directories are created.
func NewEngine(
	store storage.Driver,
	sketches sketchstore.Store,
	factories []minhash.ImplementationFactory,
	tempRoot string,
	logger *zap.Logger,
) (*Engine, error) {
	if store == nil {
		return nil, errors.New("storage driver is required")
	}
	if sketches == nil {
		return nil, errors.New("sketch store is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if err := os.MkdirAll(tempRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating temp root %s: %w", tempRoot, err)
	}

	impls := make(map[string]minhash.ImplementationFactory, len(factories))
	for _, factory := range factories {
		name := strings.ToLower(factory.ImplementationName())
		if _, ok := impls[name]; ok {
			return nil, fmt.Errorf("duplicate implementation: %s", name)
		}
		impls[name] = factory
	}

	return &Engine{
		storage:  store,
		sketches: sketches,
		impls:    impls,
		tempRoot: tempRoot,
		logger:   logger,
	}, nil
}

// Namespaces returns all namespaces available in the system.
func (e *Engine) Namespaces(ctx context.Context) ([]homology.Namespace, error) {
	namespaces, err := e.storage.GetNamespaces(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(namespaces, func(i, j int) bool { return namespaces[i].ID < namespaces[j].ID })
	return namespaces, nil
}

// Namespace returns one namespace by ID.
func (e *Engine) Namespace(ctx context.Context, id string) (homology.Namespace, error) {
	if err := homology.ValidateName(id); err != nil {
		return homology.Namespace{}, IllegalParameterError{Reason: err.Error()}
	}
	return e.storage.GetNamespace(ctx, id)
}

// ExpectedFileExtension returns the sketch file extension expected by the
// named implementation, or "" if it has no convention.
func (e *Engine) ExpectedFileExtension(implName string) (string, error) {
	factory, ok := e.impls[strings.ToLower(implName)]
	if !ok {
		return "", fmt.Errorf("no such implementation: %s", implName)
	}
	return factory.ExpectedFileExtension(), nil
}

// MeasureDistance measures the MinHash distance from a single query sequence
// to the sequences in one or more namespaces.
//
// returnCount bounds the total number of matches across all namespaces
// combined; values outside [1, 100] are replaced with 10. With strict true
// the query's sketch parameters must exactly match every namespace's; with
// strict false, parameter drift the implementation can work around is
// reported as warnings instead.
func (e *Engine) MeasureDistance(
	ctx context.Context,
	namespaceIDs []string,
	sketchPath string,
	returnCount int,
	strict bool,
) (*homology.SequenceMatches, error) {
	if len(namespaceIDs) == 0 {
		return nil, IllegalParameterError{Reason: "no namespace IDs provided"}
	}
	if returnCount > maxReturn || returnCount < 1 {
		returnCount = defaultReturn
	}

	namespaces, err := e.getNamespaces(ctx, namespaceIDs)
	if err != nil {
		return nil, err
	}

	// Request-scoped scratch space for the implementation. Removed on every
	// exit path.
	tempDir, err := os.MkdirTemp(e.tempRoot, "query-")
	if err != nil {
		return nil, fmt.Errorf("creating request temp dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tempDir); rmErr != nil {
			e.logger.Warn("failed to remove request temp dir",
				zap.String("dir", tempDir),
				zap.Error(rmErr),
			)
		}
	}()

	impl, err := e.getImplementation(namespaces, tempDir)
	if err != nil {
		return nil, err
	}

	refs, err := e.resolveSketchDatabases(ctx, namespaces)
	if err != nil {
		return nil, err
	}

	query, err := e.loadQuery(ctx, impl, sketchPath)
	if err != nil {
		return nil, err
	}

	warnings, err := e.checkCompatibility(impl, namespaces, refs, query, strict)
	if err != nil {
		return nil, err
	}

	// Input is fully validated at this point; an implementation failure from
	// here on is an environment or implementation fault, not a user error.
	dists, _, err := impl.ComputeDistance(ctx, query, refs, returnCount, strict)
	if err != nil {
		return nil, fmt.Errorf("unexpected error running MinHash implementation %s: %w",
			impl.Info().Name, err)
	}

	matches, err := e.joinMetadata(ctx, namespaces, dists)
	if err != nil {
		return nil, err
	}

	return assembleMatches(namespaces, impl.Info(), matches, warnings), nil
}

// getNamespaces fetches the namespace records for a deduplicated set of IDs.
func (e *Engine) getNamespaces(ctx context.Context, ids []string) ([]homology.Namespace, error) {
	seen := make(map[string]bool, len(ids))
	namespaces := make([]homology.Namespace, 0, len(ids))
	for _, id := range ids {
		if err := homology.ValidateName(id); err != nil {
			return nil, IllegalParameterError{Reason: err.Error()}
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		ns, err := e.storage.GetNamespace(ctx, id)
		if err != nil {
			return nil, err
		}
		namespaces = append(namespaces, ns)
	}
	sort.Slice(namespaces, func(i, j int) bool { return namespaces[i].ID < namespaces[j].ID })
	return namespaces, nil
}

// getImplementation resolves the single implementation shared by the
// selected namespaces and instantiates it.
func (e *Engine) getImplementation(
	namespaces []homology.Namespace,
	tempDir string,
) (minhash.Implementation, error) {
	names := make(map[string]bool, 1)
	for _, ns := range namespaces {
		names[strings.ToLower(ns.Sketch.Implementation)] = true
	}
	if len(names) != 1 {
		return nil, ErrIncompatibleNamespaces
	}

	var name string
	for n := range names {
		name = n
	}

	factory, ok := e.impls[name]
	if !ok {
		// Stored data references an implementation this deployment doesn't
		// carry. Misconfiguration, not a user problem.
		return nil, fmt.Errorf(
			"application is misconfigured: implementation %s stored in database but not available", name)
	}

	impl, err := factory.GetImplementation(tempDir)
	if err != nil {
		return nil, fmt.Errorf(
			"application is misconfigured: error attempting to build the %s MinHash implementation: %w",
			name, err)
	}
	return impl, nil
}

// resolveSketchDatabases materializes each namespace's sketch database as a
// local file and pairs it with the parameters recorded in storage. refs[i]
// corresponds to namespaces[i].
func (e *Engine) resolveSketchDatabases(
	ctx context.Context,
	namespaces []homology.Namespace,
) ([]*minhash.SketchDatabase, error) {
	refs := make([]*minhash.SketchDatabase, 0, len(namespaces))
	for _, ns := range namespaces {
		local, err := e.sketches.Resolve(ctx, ns.Sketch.Location)
		if err != nil {
			return nil, fmt.Errorf("resolving sketch database for namespace %s: %w", ns.ID, err)
		}
		refs = append(refs, &minhash.SketchDatabase{
			Name:           ns.ID,
			Implementation: ns.Sketch.Implementation,
			Parameters:     ns.Sketch.Parameters,
			Location:       local,
			Sequences:      ns.Sketch.Sequences,
		})
	}
	return refs, nil
}

// loadQuery loads the untrusted query sketch file and enforces that it holds
// exactly one sequence.
func (e *Engine) loadQuery(
	ctx context.Context,
	impl minhash.Implementation,
	sketchPath string,
) (*minhash.SketchDatabase, error) {
	query, err := impl.GetDatabase(ctx, minhash.QueryDBName, sketchPath)
	if err != nil {
		var notSketch minhash.NotASketchError
		if errors.As(err, &notSketch) {
			if notSketch.Stderr != "" {
				e.logger.Error("minhash implementation stderr",
					zap.String("stderr", notSketch.Stderr),
				)
			}
			return nil, InvalidSketchError{Reason: "the input sketch is not a valid sketch"}
		}
		// Other load failures may or may not be the user's fault, but the
		// failure modes aren't understood well enough to classify them.
		// Assume something broke badly.
		return nil, fmt.Errorf("error loading query sketch database: %w", err)
	}
	if query.Sequences != 1 {
		return nil, InvalidSketchError{Reason: "query sketch database must have exactly one sketch"}
	}
	return query, nil
}

// checkCompatibility validates the query against every namespace's sketch
// database, collecting namespace-prefixed warnings under lenient mode.
func (e *Engine) checkCompatibility(
	impl minhash.Implementation,
	namespaces []homology.Namespace,
	refs []*minhash.SketchDatabase,
	query *minhash.SketchDatabase,
	strict bool,
) ([]string, error) {
	var warnings []string
	for i, ref := range refs {
		warns, err := impl.CheckQueryCompatibility(ref, query, strict)
		if err != nil {
			var incompatible minhash.IncompatibleSketchesError
			if errors.As(err, &incompatible) {
				return nil, IncompatibleSketchesError{
					NamespaceID: namespaces[i].ID,
					Reason:      incompatible.Reason,
				}
			}
			return nil, fmt.Errorf("checking query compatibility with namespace %s: %w",
				namespaces[i].ID, err)
		}
		for _, w := range warns {
			warnings = append(warnings, fmt.Sprintf("Namespace %s: %s", namespaces[i].ID, w))
		}
	}
	return warnings, nil
}

// joinMetadata batches one metadata fetch per namespace and joins each
// distance to its sequence's stored metadata.
func (e *Engine) joinMetadata(
	ctx context.Context,
	namespaces []homology.Namespace,
	dists []minhash.Distance,
) ([]homology.SequenceMatch, error) {
	idToNS := make(map[string]homology.Namespace, len(namespaces))
	for _, ns := range namespaces {
		idToNS[ns.ID] = ns
	}

	seqIDsByNS := make(map[string][]string)
	for _, dist := range dists {
		if _, ok := idToNS[dist.ReferenceDB]; !ok {
			return nil, fmt.Errorf(
				"implementation returned distance for unknown reference database %s",
				dist.ReferenceDB)
		}
		seqIDsByNS[dist.ReferenceDB] = append(seqIDsByNS[dist.ReferenceDB], dist.SequenceID)
	}

	metaByNS := make(map[string]map[string]homology.SequenceMetadata, len(seqIDsByNS))
	for nsID, seqIDs := range seqIDsByNS {
		ns := idToNS[nsID]
		metas, err := e.storage.GetSequenceMetadata(ctx, ns.ID, ns.LoadID, seqIDs)
		if err != nil {
			var noSeq storage.NoSuchSequenceError
			if errors.As(err, &noSeq) {
				// The sketch database references sequences the store no
				// longer has. Never drop the record silently.
				return nil, CorruptDataError{NamespaceID: ns.ID, Err: err}
			}
			return nil, err
		}
		byID := make(map[string]homology.SequenceMetadata, len(metas))
		for _, meta := range metas {
			byID[meta.ID] = meta
		}
		metaByNS[nsID] = byID
	}

	matches := make([]homology.SequenceMatch, 0, len(dists))
	for _, dist := range dists {
		meta, ok := metaByNS[dist.ReferenceDB][dist.SequenceID]
		if !ok {
			return nil, CorruptDataError{
				NamespaceID: dist.ReferenceDB,
				Err:         fmt.Errorf("no metadata for sequence %s", dist.SequenceID),
			}
		}
		matches = append(matches, homology.SequenceMatch{
			NamespaceID: dist.ReferenceDB,
			Distance:    dist,
			Metadata:    meta,
		})
	}
	return matches, nil
}

// assembleMatches builds the final response: canonical match order
// (ascending distance, ties by namespace then sequence ID, independent of
// implementation output order) and deduplicated sorted warnings.
func assembleMatches(
	namespaces []homology.Namespace,
	info minhash.Info,
	matches []homology.SequenceMatch,
	warnings []string,
) *homology.SequenceMatches {
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Distance.Distance != b.Distance.Distance {
			return a.Distance.Distance < b.Distance.Distance
		}
		if a.NamespaceID != b.NamespaceID {
			return a.NamespaceID < b.NamespaceID
		}
		return a.Distance.SequenceID < b.Distance.SequenceID
	})

	seen := make(map[string]bool, len(warnings))
	deduped := make([]string, 0, len(warnings))
	for _, w := range warnings {
		if !seen[w] {
			seen[w] = true
			deduped = append(deduped, w)
		}
	}
	sort.Strings(deduped)

	return &homology.SequenceMatches{
		Namespaces:     namespaces,
		Implementation: info,
		Matches:        matches,
		Warnings:       deduped,
	}
}
