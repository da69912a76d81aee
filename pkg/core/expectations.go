package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidExpectations is returned when the expectation table violates
// one of its load-time invariants.
var ErrInvalidExpectations = errors.New("invalid expectations")

// RegionSpec declares one service region and its canonical phone.
type RegionSpec struct {
	Name    string `koanf:"name" json:"name" yaml:"name"`
	Display string `koanf:"display" json:"display,omitempty" yaml:"display,omitempty"`
	Phone   string `koanf:"phone" json:"phone" yaml:"phone"` // 10 digits, separators allowed
}

// PathRule maps a path substring to a region. Rules are tested in order.
type PathRule struct {
	Contains string `koanf:"contains" json:"contains" yaml:"contains"`
	Region   string `koanf:"region" json:"region" yaml:"region"`
}

// ZipRange maps an inclusive five-digit zip range to a region.
type ZipRange struct {
	From   int    `koanf:"from" json:"from" yaml:"from"`
	To     int    `koanf:"to" json:"to" yaml:"to"`
	Region string `koanf:"region" json:"region" yaml:"region"`
}

// MarkerSpec declares a content marker kind, its score weight, and the
// literal patterns that indicate its presence.
type MarkerSpec struct {
	Kind     string   `koanf:"kind" json:"kind" yaml:"kind"`
	Weight   int      `koanf:"weight" json:"weight" yaml:"weight"`
	Patterns []string `koanf:"patterns" json:"patterns" yaml:"patterns"`
}

// NavigationSpec describes how navigation containers are recognised.
type NavigationSpec struct {
	Classes         []string `koanf:"classes" json:"classes" yaml:"classes"`
	CanonicalClass  string   `koanf:"canonical_class" json:"canonical_class" yaml:"canonical_class"`
	LegacyFragments []string `koanf:"legacy_fragments" json:"legacy_fragments,omitempty" yaml:"legacy_fragments,omitempty"`
}

// Expectations is the process-wide expectation table. It is loaded once,
// validated, and treated as read-only afterwards.
type Expectations struct {
	Regions          []RegionSpec      `koanf:"regions" json:"regions" yaml:"regions"`
	PathRules        []PathRule        `koanf:"path_rules" json:"path_rules" yaml:"path_rules"`
	ZipRanges        []ZipRange        `koanf:"zip_ranges" json:"zip_ranges" yaml:"zip_ranges"`
	DefaultRegion    string            `koanf:"default_region" json:"default_region" yaml:"default_region"`
	BlankZip         string            `koanf:"blank_zip" json:"blank_zip,omitempty" yaml:"blank_zip,omitempty"` // resolved in place of a missing zip
	Markers          []MarkerSpec      `koanf:"markers" json:"markers" yaml:"markers"`
	PsychologyMarker string            `koanf:"psychology_marker" json:"psychology_marker" yaml:"psychology_marker"`
	Navigation       NavigationSpec    `koanf:"navigation" json:"navigation" yaml:"navigation"`
	BuildArtifacts   []string          `koanf:"build_artifacts" json:"build_artifacts" yaml:"build_artifacts"`
	PassThreshold    int               `koanf:"pass_threshold" json:"pass_threshold" yaml:"pass_threshold"`
	PhoneCorrections map[string]string `koanf:"phone_corrections" json:"phone_corrections,omitempty" yaml:"phone_corrections,omitempty"`
}

// DefaultExpectations returns the built-in expectation table.
func DefaultExpectations() Expectations {
	return Expectations{
		Regions: []RegionSpec{
			{Name: "maryland", Phone: "3012153191"},
			{Name: "dc", Display: "Washington DC", Phone: "2023354240"},
			{Name: "virginia", Phone: "7032291321"},
		},
		PathRules: []PathRule{
			{Contains: "western-maryland", Region: "maryland"},
			{Contains: "montgomery-county", Region: "maryland"},
			{Contains: "washington-dc", Region: "dc"},
			{Contains: "northern-virginia", Region: "virginia"},
			{Contains: "fairfax", Region: "virginia"},
			{Contains: "loudoun", Region: "virginia"},
			{Contains: "prince-william", Region: "virginia"},
		},
		ZipRanges: []ZipRange{
			{From: 20001, To: 20020, Region: "dc"},
			{From: 20024, To: 20078, Region: "dc"},
			{From: 22001, To: 22199, Region: "virginia"},
			{From: 22201, To: 22314, Region: "virginia"},
			{From: 20601, To: 20899, Region: "maryland"},
		},
		DefaultRegion: "maryland",
		BlankZip:      "20001",
		Markers: []MarkerSpec{
			{Kind: "title", Weight: 20, Patterns: []string{"<title>"}},
			{Kind: "meta_description", Weight: 20, Patterns: []string{`name="description"`}},
			{Kind: "viewport", Weight: 20, Patterns: []string{`name="viewport"`}},
			{Kind: "lazy_loading", Weight: 20, Patterns: []string{`loading="lazy"`}},
			{Kind: "authority_reversal", Weight: 20, Patterns: []string{"authority-reversal", "funeral director"}},
		},
		PsychologyMarker: "authority_reversal",
		Navigation: NavigationSpec{
			Classes:        []string{"main-navigation", "navbar", "nav-menu", "site-nav", "navigation"},
			CanonicalClass: "main-navigation",
			LegacyFragments: []string{
				"DC: (202) 335-4240",
				"MD: (301) 215-3191",
				"VA: (703) 229-1321",
			},
		},
		BuildArtifacts: []string{"package.json", "netlify.toml", "public", "build-scripts"},
		PassThreshold:  75,
		PhoneCorrections: map[string]string{
			"2022153191": "2023354240",
			"8888269429": "3012153191",
		},
	}
}

// Region returns the region spec with the given name.
func (e *Expectations) Region(name string) (RegionSpec, bool) {
	for _, r := range e.Regions {
		if r.Name == name {
			return r, true
		}
	}
	return RegionSpec{}, false
}

// Marker returns the marker spec with the given kind.
func (e *Expectations) Marker(kind string) (MarkerSpec, bool) {
	for _, m := range e.Markers {
		if m.Kind == kind {
			return m, true
		}
	}
	return MarkerSpec{}, false
}

// Validate checks the load-time invariants of the table. All problems are
// reported together, each wrapping ErrInvalidExpectations.
func (e *Expectations) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidExpectations, fmt.Sprintf(format, args...)))
	}

	declared := make(map[string]bool, len(e.Regions))
	for _, r := range e.Regions {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			bad("region with empty name")
			continue
		}
		if declared[name] {
			bad("region %q declared twice", name)
		}
		declared[name] = true
		if !IsPhoneDigits(NormalizeDigits(r.Phone)) {
			bad("region %q phone %q does not have exactly 10 digits", name, r.Phone)
		}
	}

	for i, p := range e.PathRules {
		if strings.TrimSpace(p.Contains) == "" {
			bad("path rule %d has an empty pattern", i)
		}
		if !declared[p.Region] {
			bad("path rule %q points to undeclared region %q", p.Contains, p.Region)
		}
	}

	for _, z := range e.ZipRanges {
		if z.From > z.To {
			bad("zip range %05d-%05d is inverted", z.From, z.To)
		}
		if !declared[z.Region] {
			bad("zip range %05d-%05d points to undeclared region %q", z.From, z.To, z.Region)
		}
	}

	if e.DefaultRegion != "" && !declared[e.DefaultRegion] {
		bad("default region %q is not declared", e.DefaultRegion)
	}
	if e.BlankZip != "" && !isZip5(e.BlankZip) {
		bad("blank zip %q is not a 5-digit zip code", e.BlankZip)
	}

	total := 0
	kinds := make(map[string]bool, len(e.Markers))
	for _, m := range e.Markers {
		if m.Weight < 0 {
			bad("marker %q has negative weight %d", m.Kind, m.Weight)
		}
		if len(m.Patterns) == 0 {
			bad("marker %q has no patterns", m.Kind)
		}
		kinds[m.Kind] = true
		total += m.Weight
	}
	if total > 100 {
		bad("marker weights sum to %d, more than 100", total)
	}
	if e.PsychologyMarker != "" && !kinds[e.PsychologyMarker] {
		bad("psychology marker %q is not a declared marker kind", e.PsychologyMarker)
	}

	if e.PassThreshold < 0 || e.PassThreshold > 100 {
		bad("pass threshold %d is outside 0..100", e.PassThreshold)
	}

	for wrong, right := range e.PhoneCorrections {
		if !IsPhoneDigits(NormalizeDigits(wrong)) || !IsPhoneDigits(NormalizeDigits(right)) {
			bad("phone correction %q -> %q must map 10 digits to 10 digits", wrong, right)
		}
	}

	return errors.Join(errs...)
}

func isZip5(s string) bool {
	if len(s) != 5 {
		return false
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
