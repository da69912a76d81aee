// Package region classifies site paths and zip codes into service regions
// and looks up each region's canonical phone number.
package region

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/siteaudit/pkg/core"
)

// Region is a configured region name, or Unknown.
type Region string

// Unknown is the region of a path that matched no predicate.
const Unknown Region = ""

// IsKnown reports whether r resolved to a configured region.
func (r Region) IsKnown() bool { return r != Unknown }

// String returns the region name, or "unknown".
func (r Region) String() string {
	if r == Unknown {
		return "unknown"
	}
	return string(r)
}

type entry struct {
	name    Region
	display string
	phone   string
}

// Resolver answers region questions from a validated expectation table.
// It is immutable and safe for concurrent use.
type Resolver struct {
	regions  []entry
	byName   map[Region]int
	paths    []core.PathRule
	zips     []core.ZipRange
	fallback Region
	blankZip string
}

// NewResolver builds a Resolver. The table must already be valid.
func NewResolver(exp core.Expectations) (*Resolver, error) {
	if err := exp.Validate(); err != nil {
		return nil, err
	}

	title := cases.Title(language.English)
	r := &Resolver{
		byName:   make(map[Region]int, len(exp.Regions)),
		fallback: Region(exp.DefaultRegion),
		blankZip: exp.BlankZip,
	}
	for _, spec := range exp.Regions {
		display := spec.Display
		if display == "" {
			display = title.String(strings.ReplaceAll(spec.Name, "-", " "))
		}
		r.byName[Region(spec.Name)] = len(r.regions)
		r.regions = append(r.regions, entry{
			name:    Region(spec.Name),
			display: display,
			phone:   core.NormalizeDigits(spec.Phone),
		})
	}
	for _, p := range exp.PathRules {
		r.paths = append(r.paths, core.PathRule{
			Contains: strings.ToLower(filepath.ToSlash(p.Contains)),
			Region:   p.Region,
		})
	}
	r.zips = append(r.zips, exp.ZipRanges...)
	return r, nil
}

// Resolve classifies a path. Predicates are tested in declaration order and
// the first match wins, so more specific names must be declared first.
func (r *Resolver) Resolve(path string) Region {
	p := strings.ToLower(filepath.ToSlash(path))
	for _, rule := range r.paths {
		if strings.Contains(p, rule.Contains) {
			return Region(rule.Region)
		}
	}
	return Unknown
}

// Phone returns the canonical phone digits for a region.
// Unknown never has a phone.
func (r *Resolver) Phone(region Region) (string, bool) {
	i, ok := r.byName[region]
	if !ok {
		return "", false
	}
	return r.regions[i].phone, true
}

// Display returns the human-readable region name.
func (r *Resolver) Display(region Region) string {
	if i, ok := r.byName[region]; ok {
		return r.regions[i].display
	}
	return "Unknown"
}

// Regions returns the configured regions in declaration order.
func (r *Resolver) Regions() []Region {
	out := make([]Region, len(r.regions))
	for i, e := range r.regions {
		out[i] = e.name
	}
	return out
}

// PathRules returns the ordered path predicates.
func (r *Resolver) PathRules() []core.PathRule {
	return append([]core.PathRule(nil), r.paths...)
}

// FromZip maps a zip code to a region. Zip+4 suffixes are ignored. A blank
// zip is looked up as the configured blank zip.
// Unparseable or unmatched zips yield the default region.
func (r *Resolver) FromZip(zip string) Region {
	zip = strings.TrimSpace(zip)
	if zip == "" {
		zip = r.blankZip
	}
	if before, _, ok := strings.Cut(zip, "-"); ok {
		zip = before
	}
	if len(zip) != 5 {
		return r.fallback
	}
	n, err := strconv.Atoi(zip)
	if err != nil {
		return r.fallback
	}
	for _, z := range r.zips {
		if n >= z.From && n <= z.To {
			return Region(z.Region)
		}
	}
	return r.fallback
}

// FormatPhone renders ten digits as "(301) 215-3191". Other input is
// returned unchanged.
func FormatPhone(digits string) string {
	if !core.IsPhoneDigits(digits) {
		return digits
	}
	return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
}

// FormatDashed renders ten digits as "301-215-3191".
func FormatDashed(digits string) string {
	if !core.IsPhoneDigits(digits) {
		return digits
	}
	return digits[:3] + "-" + digits[3:6] + "-" + digits[6:]
}
