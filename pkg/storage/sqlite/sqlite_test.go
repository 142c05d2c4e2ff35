package sqlite_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scanon/AssemblyHomologyService/pkg/homology"
	"github.com/scanon/AssemblyHomologyService/pkg/minhash"
	"github.com/scanon/AssemblyHomologyService/pkg/storage"
	"github.com/scanon/AssemblyHomologyService/pkg/storage/sqlite"
)

var _ = Describe("Driver", func() {
	var (
		ctx    context.Context
		driver *sqlite.Driver
	)

	namespace := func(id, loadID string) homology.Namespace {
		return homology.Namespace{
			ID:          id,
			LoadID:      loadID,
			Description: "bacterial assemblies",
			Modified:    time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC),
			Sketch: homology.SketchInfo{
				Implementation: "mash",
				Parameters:     minhash.Parameters{KmerSize: 21, SketchSize: 1000},
				Location:       "/data/" + id + ".msh",
				Sequences:      2,
			},
		}
	}

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		driver, err = sqlite.NewDriver(":memory:")
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		Expect(driver.Close()).To(Succeed())
	})

	Describe("namespaces", func() {
		It("round-trips a namespace", func() {
			ns := namespace("refseq", "load1")
			Expect(driver.SaveNamespace(ctx, ns)).To(Succeed())

			got, err := driver.GetNamespace(ctx, "refseq")
			Expect(err).ToNot(HaveOccurred())
			Expect(got.ID).To(Equal("refseq"))
			Expect(got.LoadID).To(Equal("load1"))
			Expect(got.Description).To(Equal("bacterial assemblies"))
			Expect(got.Modified.Equal(ns.Modified)).To(BeTrue())
			Expect(got.Sketch).To(Equal(ns.Sketch))
		})

		It("upserts on conflicting ID", func() {
			Expect(driver.SaveNamespace(ctx, namespace("refseq", "load1"))).To(Succeed())

			updated := namespace("refseq", "load2")
			updated.Sketch.Sequences = 9
			Expect(driver.SaveNamespace(ctx, updated)).To(Succeed())

			got, err := driver.GetNamespace(ctx, "refseq")
			Expect(err).ToNot(HaveOccurred())
			Expect(got.LoadID).To(Equal("load2"))
			Expect(got.Sketch.Sequences).To(Equal(9))

			all, err := driver.GetNamespaces(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(all).To(HaveLen(1))
		})

		It("lists all namespaces", func() {
			Expect(driver.SaveNamespace(ctx, namespace("refseq", "load1"))).To(Succeed())
			Expect(driver.SaveNamespace(ctx, namespace("internal", "load2"))).To(Succeed())

			all, err := driver.GetNamespaces(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(all).To(HaveLen(2))
		})

		It("returns NoSuchNamespaceError for an unknown ID", func() {
			_, err := driver.GetNamespace(ctx, "missing")
			var noNS storage.NoSuchNamespaceError
			Expect(errors.As(err, &noNS)).To(BeTrue())
			Expect(noNS.ID).To(Equal("missing"))
		})
	})

	Describe("sequence metadata", func() {
		metas := []homology.SequenceMetadata{
			{ID: "GCF_1", SourceID: "15/1/1", ScientificName: "Escherichia coli",
				RelatedIDs: map[string]string{"NCBI": "GCF_1", "assembly": "442"}},
			{ID: "GCF_2", SourceID: "15/2/1"},
		}

		BeforeEach(func() {
			Expect(driver.SaveSequenceMetadata(ctx, "refseq", "load1", metas)).To(Succeed())
		})

		It("round-trips metadata including related IDs", func() {
			got, err := driver.GetSequenceMetadata(ctx, "refseq", "load1", []string{"GCF_1", "GCF_2"})
			Expect(err).ToNot(HaveOccurred())
			Expect(got).To(HaveLen(2))
			Expect(got[0].RelatedIDs).To(Equal(map[string]string{"NCBI": "GCF_1", "assembly": "442"}))
			Expect(got[1].RelatedIDs).To(BeEmpty())
		})

		It("returns metadata in requested order", func() {
			got, err := driver.GetSequenceMetadata(ctx, "refseq", "load1", []string{"GCF_2", "GCF_1"})
			Expect(err).ToNot(HaveOccurred())
			Expect(got[0].ID).To(Equal("GCF_2"))
			Expect(got[1].ID).To(Equal("GCF_1"))
		})

		It("reports all missing sequence IDs", func() {
			_, err := driver.GetSequenceMetadata(ctx, "refseq", "load1",
				[]string{"GCF_1", "GCF_9", "GCF_8"})
			var noSeq storage.NoSuchSequenceError
			Expect(errors.As(err, &noSeq)).To(BeTrue())
			Expect(noSeq.SequenceIDs).To(ConsistOf("GCF_9", "GCF_8"))
		})

		It("keeps loads isolated", func() {
			_, err := driver.GetSequenceMetadata(ctx, "refseq", "load2", []string{"GCF_1"})
			var noSeq storage.NoSuchSequenceError
			Expect(errors.As(err, &noSeq)).To(BeTrue())
		})

		It("upserts records with the same key", func() {
			updated := []homology.SequenceMetadata{
				{ID: "GCF_1", SourceID: "15/1/2", ScientificName: "Escherichia coli K-12"},
			}
			Expect(driver.SaveSequenceMetadata(ctx, "refseq", "load1", updated)).To(Succeed())

			got, err := driver.GetSequenceMetadata(ctx, "refseq", "load1", []string{"GCF_1"})
			Expect(err).ToNot(HaveOccurred())
			Expect(got[0].SourceID).To(Equal("15/1/2"))
			Expect(got[0].ScientificName).To(Equal("Escherichia coli K-12"))
		})
	})
})
