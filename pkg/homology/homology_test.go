package homology_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scanon/AssemblyHomologyService/pkg/homology"
)

var _ = Describe("ValidateName", func() {
	It("accepts letters, digits and underscores", func() {
		for _, name := range []string{"refseq", "RefSeq_2026", "a", "_", "0"} {
			Expect(homology.ValidateName(name)).To(Succeed(), name)
		}
	})

	It("accepts a name of exactly 256 characters", func() {
		Expect(homology.ValidateName(strings.Repeat("n", 256))).To(Succeed())
	})

	It("rejects an empty name", func() {
		Expect(homology.ValidateName("")).To(MatchError(ContainSubstring("empty")))
	})

	It("rejects a name over 256 characters", func() {
		err := homology.ValidateName(strings.Repeat("n", 257))
		Expect(err).To(MatchError(ContainSubstring("256")))
	})

	It("rejects illegal characters", func() {
		for _, name := range []string{"ref seq", "ref-seq", "ref.seq", "<query>", "ref/seq", "ref*seq"} {
			Expect(homology.ValidateName(name)).To(HaveOccurred(), name)
		}
	})
})
