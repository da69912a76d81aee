package extract

import (
	"bytes"

	"github.com/leapstack-labs/siteaudit/pkg/core"
)

// MarkerOccurrence records how often a marker kind's patterns appear.
type MarkerOccurrence struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// Present reports whether any pattern of the kind occurred.
func (m MarkerOccurrence) Present() bool { return m.Count > 0 }

// Markers counts marker patterns case-insensitively. The result has one
// entry per spec, in spec order, including kinds with a zero count.
func Markers(content []byte, specs []core.MarkerSpec) []MarkerOccurrence {
	lower := bytes.ToLower(content)
	out := make([]MarkerOccurrence, len(specs))
	for i, spec := range specs {
		out[i].Kind = spec.Kind
		for _, p := range spec.Patterns {
			if p == "" {
				continue
			}
			out[i].Count += bytes.Count(lower, bytes.ToLower([]byte(p)))
		}
	}
	return out
}
