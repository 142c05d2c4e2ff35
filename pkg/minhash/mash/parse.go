package mash

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/scanon/AssemblyHomologyService/pkg/minhash"
)

// parseInfoHeader extracts sketch parameters and the sequence count from
// `mash info -H` output, which looks like:
//
//	Header:
//	  Hash function (seed):          MurmurHash3_x64_128 (42)
//	  K-mer size:                    21 (64-bit hashes)
//	  Alphabet:                      ACGT (canonical)
//	  Target min-hashes per sketch:  1000
//	  Sketches:                      42
func parseInfoHeader(out string) (minhash.Parameters, int, error) {
	var (
		params    minhash.Parameters
		sequences int
		haveKmer  bool
		haveSize  bool
		haveCount bool
	)

	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.TrimSpace(key) {
		case "K-mer size":
			n, err := parseLeadingInt(value)
			if err != nil {
				return params, 0, fmt.Errorf("parsing k-mer size %q: %w", value, err)
			}
			params.KmerSize = n
			haveKmer = true
		case "Target min-hashes per sketch":
			n, err := parseLeadingInt(value)
			if err != nil {
				return params, 0, fmt.Errorf("parsing sketch size %q: %w", value, err)
			}
			params.SketchSize = n
			haveSize = true
		case "Sketches":
			n, err := parseLeadingInt(value)
			if err != nil {
				return params, 0, fmt.Errorf("parsing sketch count %q: %w", value, err)
			}
			sequences = n
			haveCount = true
		}
	}

	if !haveKmer || !haveSize || !haveCount {
		return params, 0, fmt.Errorf("missing expected fields in mash info header")
	}
	return params, sequences, nil
}

// parseLeadingInt parses the integer at the start of a value, ignoring any
// trailing annotation like "21 (64-bit hashes)".
func parseLeadingInt(value string) (int, error) {
	field, _, _ := strings.Cut(value, " ")
	return strconv.Atoi(field)
}

// parseDistLines parses `mash dist` tab-separated output. Each line is
// refSequenceID, queryID, distance, p-value, matching-hashes. The returned
// distances are tagged with refDB as their owning database name.
func parseDistLines(out, refDB string) ([]minhash.Distance, error) {
	var dists []minhash.Distance

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("unparseable mash dist line: %q", line)
		}
		dist, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing distance in mash dist line %q: %w", line, err)
		}
		dists = append(dists, minhash.Distance{
			ReferenceDB: refDB,
			SequenceID:  fields[0],
			Distance:    dist,
		})
	}
	return dists, nil
}

// parseVersion pulls the version number out of mash's usage banner, which
// starts with a line like "Mash version 2.3".
func parseVersion(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "Mash version "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return "unknown"
}

// warningLines extracts warning lines from mash stderr output.
func warningLines(stderr string) []string {
	var warnings []string
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "Warning: "); ok {
			warnings = append(warnings, rest)
		}
	}
	return warnings
}
