package extract

import "github.com/leapstack-labs/siteaudit/pkg/core"

// Options selects what Extract looks for.
type Options struct {
	Markers []core.MarkerSpec
	Nav     NavQuery
}

// OptionsFrom derives extraction options from an expectation table.
func OptionsFrom(exp core.Expectations) Options {
	return Options{
		Markers: exp.Markers,
		Nav: NavQuery{
			Classes:        exp.Navigation.Classes,
			CanonicalClass: exp.Navigation.CanonicalClass,
		},
	}
}

// Facts bundles everything extracted from one document.
type Facts struct {
	Phones     []PhoneOccurrence  `json:"phones"`
	Markers    []MarkerOccurrence `json:"markers"`
	Navigation []NavBlock         `json:"navigation"`
}

// Marker returns the occurrence for a kind. Unknown kinds have a zero count.
func (f *Facts) Marker(kind string) MarkerOccurrence {
	for _, m := range f.Markers {
		if m.Kind == kind {
			return m
		}
	}
	return MarkerOccurrence{Kind: kind}
}

// CanonicalNavCount returns how many navigation blocks are canonical.
func (f *Facts) CanonicalNavCount() int {
	n := 0
	for _, b := range f.Navigation {
		if b.Canonical {
			n++
		}
	}
	return n
}

// Extract runs every extractor over content.
func Extract(content []byte, opts Options) *Facts {
	return &Facts{
		Phones:     Phones(content),
		Markers:    Markers(content, opts.Markers),
		Navigation: Navigation(content, opts.Nav),
	}
}
