// Package score computes weighted percentage scores. Scores are reported
// alongside violations but never produce violations themselves.
package score

import (
	"os"
	"path/filepath"

	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/extract"
)

// Score is a weighted result out of Max points.
type Score struct {
	Points  int `json:"points"`
	Max     int `json:"max"`
	Percent int `json:"percent"`
}

// Passes reports whether the percentage meets the threshold.
func (s Score) Passes(threshold int) bool {
	return s.Percent >= threshold
}

// Markers sums the weights of every present marker kind, capped at 100.
func Markers(facts *extract.Facts, specs []core.MarkerSpec) Score {
	var s Score
	for _, spec := range specs {
		s.Max += spec.Weight
		if facts != nil && facts.Marker(spec.Kind).Present() {
			s.Points += spec.Weight
		}
	}
	s.Percent = min(s.Points, 100)
	return s
}

// BuildSystem awards an equal share of 100 points per artifact present
// under root.
func BuildSystem(root string, artifacts []string) Score {
	s := Score{Max: 100}
	if len(artifacts) == 0 {
		s.Points, s.Percent = 100, 100
		return s
	}
	each := 100 / len(artifacts)
	present := 0
	for _, a := range artifacts {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(a))); err == nil {
			present++
		}
	}
	s.Points = present * each
	if present == len(artifacts) {
		s.Points = 100
	}
	s.Percent = s.Points
	return s
}
