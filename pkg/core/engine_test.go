package core_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/scanon/AssemblyHomologyService/pkg/core"
	"github.com/scanon/AssemblyHomologyService/pkg/homology"
	"github.com/scanon/AssemblyHomologyService/pkg/minhash"
	"github.com/scanon/AssemblyHomologyService/pkg/storage"
	"github.com/scanon/AssemblyHomologyService/pkg/storage/inmemory"
)

const queryLocation = "query.msh"

var _ = Describe("Engine", func() {
	var (
		ctx      context.Context
		store    *inmemory.Driver
		sketches *fakeStore
		impl     *fakeImplementation
		factory  *fakeFactory
		tempRoot string
		engine   *core.Engine
	)

	newNamespace := func(id, loadID, implName string) homology.Namespace {
		return homology.Namespace{
			ID:          id,
			LoadID:      loadID,
			Description: "test namespace " + id,
			Modified:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			Sketch: homology.SketchInfo{
				Implementation: implName,
				Parameters:     minhash.Parameters{KmerSize: 31, SketchSize: 1000},
				Location:       "loc-" + id,
				Sequences:      3,
			},
		}
	}

	saveMetadata := func(nsID, loadID string, seqIDs ...string) {
		metas := make([]homology.SequenceMetadata, 0, len(seqIDs))
		for _, id := range seqIDs {
			metas = append(metas, homology.SequenceMetadata{
				ID:             id,
				SourceID:       "src/" + id,
				ScientificName: "Escherichia coli " + id,
			})
		}
		Expect(store.SaveSequenceMetadata(ctx, nsID, loadID, metas)).To(Succeed())
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = inmemory.NewDriver()
		sketches = &fakeStore{}
		impl = &fakeImplementation{
			info: minhash.Info{Name: "mash", Version: "2.3"},
			databases: map[string]*minhash.SketchDatabase{
				queryLocation: {
					Implementation: "mash",
					Parameters:     minhash.Parameters{KmerSize: 31, SketchSize: 1000},
					Location:       queryLocation,
					Sequences:      1,
				},
			},
		}
		factory = &fakeFactory{name: "mash", extension: "msh", impl: impl}

		Expect(store.SaveNamespace(ctx, newNamespace("refseq", "load1", "mash"))).To(Succeed())
		Expect(store.SaveNamespace(ctx, newNamespace("internal", "load2", "mash"))).To(Succeed())
		saveMetadata("refseq", "load1", "GCF_1", "GCF_2", "GCF_3")
		saveMetadata("internal", "load2", "GCA_1", "GCA_2")

		tempRoot = filepath.Join(GinkgoT().TempDir(), "scratch")

		var err error
		engine, err = core.NewEngine(
			store, sketches, []minhash.ImplementationFactory{factory}, tempRoot, zap.NewNop())
		Expect(err).ToNot(HaveOccurred())
	})

	Describe("NewEngine", func() {
		It("creates the temp root", func() {
			info, err := os.Stat(tempRoot)
			Expect(err).ToNot(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("rejects duplicate implementation names regardless of case", func() {
			other := &fakeFactory{name: "Mash", impl: impl}
			_, err := core.NewEngine(
				store, sketches, []minhash.ImplementationFactory{factory, other}, tempRoot, zap.NewNop())
			Expect(err).To(MatchError(ContainSubstring("duplicate implementation: mash")))
		})

		It("requires a storage driver, sketch store and logger", func() {
			_, err := core.NewEngine(nil, sketches, nil, tempRoot, zap.NewNop())
			Expect(err).To(HaveOccurred())
			_, err = core.NewEngine(store, nil, nil, tempRoot, zap.NewNop())
			Expect(err).To(HaveOccurred())
			_, err = core.NewEngine(store, sketches, nil, tempRoot, nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Namespaces", func() {
		It("returns all namespaces sorted by ID", func() {
			namespaces, err := engine.Namespaces(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(namespaces).To(HaveLen(2))
			Expect(namespaces[0].ID).To(Equal("internal"))
			Expect(namespaces[1].ID).To(Equal("refseq"))
		})
	})

	Describe("Namespace", func() {
		It("returns a namespace by ID", func() {
			ns, err := engine.Namespace(ctx, "refseq")
			Expect(err).ToNot(HaveOccurred())
			Expect(ns.LoadID).To(Equal("load1"))
			Expect(ns.Sketch.Implementation).To(Equal("mash"))
		})

		It("returns NoSuchNamespaceError for an unknown ID", func() {
			_, err := engine.Namespace(ctx, "nope")
			var noNS storage.NoSuchNamespaceError
			Expect(errors.As(err, &noNS)).To(BeTrue())
			Expect(noNS.ID).To(Equal("nope"))
			Expect(core.IsUserError(err)).To(BeTrue())
		})

		It("rejects an illegal namespace name as a user error", func() {
			_, err := engine.Namespace(ctx, "not a name!")
			var illegal core.IllegalParameterError
			Expect(errors.As(err, &illegal)).To(BeTrue())
			Expect(core.IsUserError(err)).To(BeTrue())
		})
	})

	Describe("ExpectedFileExtension", func() {
		It("resolves the implementation case-insensitively", func() {
			ext, err := engine.ExpectedFileExtension("MASH")
			Expect(err).ToNot(HaveOccurred())
			Expect(ext).To(Equal("msh"))
		})

		It("errors for an unknown implementation", func() {
			_, err := engine.ExpectedFileExtension("sourmash")
			Expect(err).To(MatchError(ContainSubstring("no such implementation")))
		})
	})

	Describe("MeasureDistance", func() {
		BeforeEach(func() {
			impl.distances = []minhash.Distance{
				{ReferenceDB: "refseq", SequenceID: "GCF_2", Distance: 0.005},
				{ReferenceDB: "internal", SequenceID: "GCA_1", Distance: 0.001},
				{ReferenceDB: "refseq", SequenceID: "GCF_1", Distance: 0.002},
			}
		})

		It("returns matches joined to metadata in canonical order", func() {
			matches, err := engine.MeasureDistance(
				ctx, []string{"refseq", "internal"}, queryLocation, 10, true)
			Expect(err).ToNot(HaveOccurred())

			Expect(matches.Implementation).To(Equal(minhash.Info{Name: "mash", Version: "2.3"}))
			Expect(matches.Namespaces).To(HaveLen(2))
			Expect(matches.Warnings).To(BeEmpty())

			Expect(matches.Matches).To(HaveLen(3))
			Expect(matches.Matches[0].Distance.SequenceID).To(Equal("GCA_1"))
			Expect(matches.Matches[1].Distance.SequenceID).To(Equal("GCF_1"))
			Expect(matches.Matches[2].Distance.SequenceID).To(Equal("GCF_2"))
			Expect(matches.Matches[0].NamespaceID).To(Equal("internal"))
			Expect(matches.Matches[0].Metadata.ScientificName).To(Equal("Escherichia coli GCA_1"))

			Expect(impl.computeCalls).To(Equal(1))
			Expect(impl.lastRefs).To(HaveLen(2))
			Expect(impl.lastStrict).To(BeTrue())
		})

		It("breaks distance ties by namespace then sequence ID", func() {
			impl.distances = []minhash.Distance{
				{ReferenceDB: "refseq", SequenceID: "GCF_2", Distance: 0.01},
				{ReferenceDB: "refseq", SequenceID: "GCF_1", Distance: 0.01},
				{ReferenceDB: "internal", SequenceID: "GCA_2", Distance: 0.01},
			}
			matches, err := engine.MeasureDistance(
				ctx, []string{"refseq", "internal"}, queryLocation, 10, true)
			Expect(err).ToNot(HaveOccurred())
			Expect(matches.Matches[0].NamespaceID).To(Equal("internal"))
			Expect(matches.Matches[1].Distance.SequenceID).To(Equal("GCF_1"))
			Expect(matches.Matches[2].Distance.SequenceID).To(Equal("GCF_2"))
		})

		It("deduplicates namespace IDs", func() {
			impl.distances = []minhash.Distance{
				{ReferenceDB: "refseq", SequenceID: "GCF_1", Distance: 0.002},
			}
			matches, err := engine.MeasureDistance(
				ctx, []string{"refseq", "refseq"}, queryLocation, 10, true)
			Expect(err).ToNot(HaveOccurred())
			Expect(matches.Namespaces).To(HaveLen(1))
			Expect(impl.lastRefs).To(HaveLen(1))
		})

		DescribeTable("replaces out-of-range return counts with the default",
			func(count int) {
				_, err := engine.MeasureDistance(
					ctx, []string{"refseq", "internal"}, queryLocation, count, true)
				Expect(err).ToNot(HaveOccurred())
				Expect(impl.lastCount).To(Equal(10))
			},
			Entry("zero", 0),
			Entry("negative", -5),
			Entry("above the maximum", 101),
		)

		DescribeTable("passes in-range return counts through unchanged",
			func(count int) {
				_, err := engine.MeasureDistance(
					ctx, []string{"refseq", "internal"}, queryLocation, count, true)
				Expect(err).ToNot(HaveOccurred())
				Expect(impl.lastCount).To(Equal(count))
			},
			Entry("one", 1),
			Entry("fifty", 50),
			Entry("the maximum", 100),
		)

		It("rejects an empty namespace set", func() {
			_, err := engine.MeasureDistance(ctx, nil, queryLocation, 10, true)
			var illegal core.IllegalParameterError
			Expect(errors.As(err, &illegal)).To(BeTrue())
		})

		It("rejects an illegal namespace name before touching storage", func() {
			_, err := engine.MeasureDistance(
				ctx, []string{"bad name"}, queryLocation, 10, true)
			var illegal core.IllegalParameterError
			Expect(errors.As(err, &illegal)).To(BeTrue())
		})

		It("returns NoSuchNamespaceError for an unknown namespace", func() {
			_, err := engine.MeasureDistance(
				ctx, []string{"refseq", "missing"}, queryLocation, 10, true)
			var noNS storage.NoSuchNamespaceError
			Expect(errors.As(err, &noNS)).To(BeTrue())
		})

		Context("when the namespaces span implementations", func() {
			BeforeEach(func() {
				Expect(store.SaveNamespace(ctx, newNamespace("other", "load3", "sourmash"))).To(Succeed())
			})

			It("fails without invoking any implementation capability", func() {
				_, err := engine.MeasureDistance(
					ctx, []string{"refseq", "other"}, queryLocation, 10, true)
				Expect(errors.Is(err, core.ErrIncompatibleNamespaces)).To(BeTrue())
				Expect(core.IsUserError(err)).To(BeTrue())

				Expect(factory.getCalls).To(BeEmpty())
				Expect(impl.getDBCalls).To(BeEmpty())
				Expect(impl.compatCalls).To(BeEmpty())
				Expect(impl.computeCalls).To(BeZero())
			})
		})

		Context("when stored data names an unregistered implementation", func() {
			BeforeEach(func() {
				Expect(store.SaveNamespace(ctx, newNamespace("orphan", "load4", "sourmash"))).To(Succeed())
			})

			It("fails as a non-user misconfiguration error", func() {
				_, err := engine.MeasureDistance(
					ctx, []string{"orphan"}, queryLocation, 10, true)
				Expect(err).To(MatchError(ContainSubstring("application is misconfigured")))
				Expect(err).To(MatchError(ContainSubstring("sourmash")))
				Expect(core.IsUserError(err)).To(BeFalse())
			})
		})

		Context("when the implementation fails to initialize", func() {
			BeforeEach(func() {
				factory.initErr = minhash.InitError{
					Implementation: "mash",
					Err:            errors.New("exec: mash: not found"),
				}
			})

			It("fails as a non-user misconfiguration error", func() {
				_, err := engine.MeasureDistance(
					ctx, []string{"refseq"}, queryLocation, 10, true)
				Expect(err).To(MatchError(ContainSubstring("application is misconfigured")))
				Expect(core.IsUserError(err)).To(BeFalse())
			})
		})

		Context("when the query file is not a sketch", func() {
			BeforeEach(func() {
				impl.getDBErr = minhash.NotASketchError{
					Path:   queryLocation,
					Stderr: "ERROR: unexpected magic number",
				}
			})

			It("surfaces InvalidSketchError without the tool diagnostics", func() {
				_, err := engine.MeasureDistance(
					ctx, []string{"refseq"}, queryLocation, 10, true)
				var invalid core.InvalidSketchError
				Expect(errors.As(err, &invalid)).To(BeTrue())
				Expect(err.Error()).ToNot(ContainSubstring("magic number"))
				Expect(core.IsUserError(err)).To(BeTrue())
				Expect(impl.computeCalls).To(BeZero())
			})
		})

		DescribeTable("rejects query databases without exactly one sequence",
			func(sequences int) {
				impl.databases[queryLocation].Sequences = sequences
				_, err := engine.MeasureDistance(
					ctx, []string{"refseq"}, queryLocation, 10, true)
				var invalid core.InvalidSketchError
				Expect(errors.As(err, &invalid)).To(BeTrue())
				Expect(err.Error()).To(ContainSubstring("exactly one sketch"))
				Expect(impl.computeCalls).To(BeZero())
			},
			Entry("zero sequences", 0),
			Entry("two sequences", 2),
		)

		Context("when a namespace is incompatible with the query", func() {
			BeforeEach(func() {
				impl.compatErr = minhash.IncompatibleSketchesError{
					Reason: "kmer size 21 does not match query kmer size 31",
				}
				impl.compatErrFor = "internal"
			})

			It("names the namespace in the error and skips distance computation", func() {
				_, err := engine.MeasureDistance(
					ctx, []string{"refseq", "internal"}, queryLocation, 10, true)
				var incompatible core.IncompatibleSketchesError
				Expect(errors.As(err, &incompatible)).To(BeTrue())
				Expect(incompatible.NamespaceID).To(Equal("internal"))
				Expect(err.Error()).To(ContainSubstring("kmer size 21"))
				Expect(core.IsUserError(err)).To(BeTrue())
				Expect(impl.computeCalls).To(BeZero())
			})
		})

		Context("when lenient mode downgrades a mismatch to warnings", func() {
			BeforeEach(func() {
				impl.compatWarnings = []string{
					"Query sketch size 2000 is larger than target sketch size 1000",
				}
			})

			It("prefixes each warning with its namespace and still returns matches", func() {
				matches, err := engine.MeasureDistance(
					ctx, []string{"refseq", "internal"}, queryLocation, 10, false)
				Expect(err).ToNot(HaveOccurred())
				Expect(matches.Matches).ToNot(BeEmpty())
				Expect(matches.Warnings).To(Equal([]string{
					"Namespace internal: Query sketch size 2000 is larger than target sketch size 1000",
					"Namespace refseq: Query sketch size 2000 is larger than target sketch size 1000",
				}))
				Expect(impl.lastStrict).To(BeFalse())
			})
		})

		Context("when a distance references a sequence with no metadata", func() {
			BeforeEach(func() {
				impl.distances = []minhash.Distance{
					{ReferenceDB: "refseq", SequenceID: "GCF_999", Distance: 0.001},
				}
			})

			It("fails with CorruptDataError instead of dropping the match", func() {
				_, err := engine.MeasureDistance(
					ctx, []string{"refseq"}, queryLocation, 10, true)
				var corrupt core.CorruptDataError
				Expect(errors.As(err, &corrupt)).To(BeTrue())
				Expect(corrupt.NamespaceID).To(Equal("refseq"))
				Expect(core.IsUserError(err)).To(BeFalse())
			})
		})

		Context("when the implementation reports an unknown reference database", func() {
			BeforeEach(func() {
				impl.distances = []minhash.Distance{
					{ReferenceDB: "phantom", SequenceID: "X", Distance: 0.1},
				}
			})

			It("fails rather than returning unattributable matches", func() {
				_, err := engine.MeasureDistance(
					ctx, []string{"refseq"}, queryLocation, 10, true)
				Expect(err).To(MatchError(ContainSubstring("unknown reference database phantom")))
			})
		})

		Context("when the distance computation itself fails", func() {
			BeforeEach(func() {
				impl.distErr = errors.New("signal: killed")
			})

			It("wraps the failure as a non-user error naming the implementation", func() {
				_, err := engine.MeasureDistance(
					ctx, []string{"refseq"}, queryLocation, 10, true)
				Expect(err).To(MatchError(ContainSubstring("unexpected error running MinHash implementation mash")))
				Expect(core.IsUserError(err)).To(BeFalse())
			})
		})

		It("removes the request scratch directory on success", func() {
			_, err := engine.MeasureDistance(
				ctx, []string{"refseq", "internal"}, queryLocation, 10, true)
			Expect(err).ToNot(HaveOccurred())

			entries, err := os.ReadDir(tempRoot)
			Expect(err).ToNot(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("removes the request scratch directory on failure", func() {
			impl.distErr = errors.New("boom")
			_, err := engine.MeasureDistance(
				ctx, []string{"refseq"}, queryLocation, 10, true)
			Expect(err).To(HaveOccurred())

			entries, err := os.ReadDir(tempRoot)
			Expect(err).ToNot(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("hands the implementation a scratch directory under the temp root", func() {
			_, err := engine.MeasureDistance(
				ctx, []string{"refseq", "internal"}, queryLocation, 10, true)
			Expect(err).ToNot(HaveOccurred())
			Expect(factory.getCalls).To(HaveLen(1))
			Expect(factory.getCalls[0]).To(HavePrefix(filepath.Join(tempRoot, "query-")))
		})
	})
})
