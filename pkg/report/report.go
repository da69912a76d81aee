// Package report turns a pipeline result into summary numbers and a
// verdict. It does no printing; rendering lives with the CLI.
package report

import (
	"sort"
	"time"

	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/pipeline"
	"github.com/leapstack-labs/siteaudit/pkg/region"
	"github.com/leapstack-labs/siteaudit/pkg/repair"
	"github.com/leapstack-labs/siteaudit/pkg/score"
)

// Verdict is the overall audit result.
type Verdict string

// Verdicts.
const (
	VerdictPass      Verdict = "PASS"
	VerdictNeedsWork Verdict = "NEEDS-WORK"
)

// CategorySummary is the pass rate of one category.
type CategorySummary struct {
	Category   core.Category `json:"category"`
	Violations int           `json:"violations"`
	Passing    int           `json:"passing"`
	Total      int           `json:"total"`
	PassRate   float64       `json:"pass_rate"` // percent
	Passes     bool          `json:"passes"`
}

// RegionSummary groups pages by resolved region.
type RegionSummary struct {
	Region              string `json:"region"`
	Display             string `json:"display"`
	Phone               string `json:"phone,omitempty"`
	Files               int    `json:"files"`
	FilesWithViolations int    `json:"files_with_violations"`
	Violations          int    `json:"violations"`
}

// Repaired lists one file the repairer changed (or would change).
type Repaired struct {
	File    string          `json:"file"`
	State   repair.State    `json:"state"`
	Changes []repair.Change `json:"changes"`
}

// Report is the computed audit summary.
type Report struct {
	Root      string  `json:"root"`
	Verdict   Verdict `json:"verdict"`
	Threshold int     `json:"threshold"`

	FilesScanned        int `json:"files_scanned"`
	FilesWithViolations int `json:"files_with_violations"`
	FilesFailed         int `json:"files_failed"`
	FilesRepaired       int `json:"files_repaired"`
	ViolationCount      int `json:"violation_count"`
	ErrorCount          int `json:"error_count"`
	WarningCount        int `json:"warning_count"`
	SkippedDirs         int `json:"skipped_dirs"`

	AverageMarkerScore float64     `json:"average_marker_score"`
	BuildScore         score.Score `json:"build_score"`

	Categories []CategorySummary     `json:"categories"`
	Regions    []RegionSummary       `json:"regions"`
	Violations []core.Violation      `json:"violations"`
	Errors     []*pipeline.FileError `json:"errors,omitempty"`
	Repaired   []Repaired            `json:"repaired,omitempty"`
	Duration   time.Duration         `json:"duration_ns"`
}

// ByCategory returns the violations of one category.
func (r *Report) ByCategory(c core.Category) []core.Violation {
	var out []core.Violation
	for _, v := range r.Violations {
		if v.Category == c {
			out = append(out, v)
		}
	}
	return out
}

// Passed reports whether the verdict is PASS.
func (r *Report) Passed() bool { return r.Verdict == VerdictPass }

type options struct {
	categories map[core.Category]bool
	resolver   *region.Resolver
}

// Option customises Build.
type Option func(*options)

// WithCategories limits the summary and verdict to the given categories.
func WithCategories(cats ...core.Category) Option {
	return func(o *options) {
		for _, c := range cats {
			o.categories[c] = true
		}
	}
}

// WithResolver supplies display names and phones for region summaries.
func WithResolver(r *region.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// Build computes the report. The verdict is PASS only when at least one
// file was scanned, no error-severity violation exists, and every
// category's pass rate meets the threshold.
func Build(res *pipeline.Result, exp core.Expectations, opts ...Option) *Report {
	o := options{categories: make(map[core.Category]bool)}
	for _, opt := range opts {
		opt(&o)
	}
	active := func(c core.Category) bool {
		return len(o.categories) == 0 || o.categories[c]
	}

	r := &Report{
		Root:         res.Root,
		Threshold:    exp.PassThreshold,
		FilesScanned: len(res.Files),
		FilesFailed:  countFailed(res.Errors),
		SkippedDirs:  res.SkippedDirs,
		BuildScore:   res.BuildScore,
		Errors:       res.Errors,
		Duration:     res.Duration,
	}

	failing := make(map[core.Category]int)
	counts := make(map[core.Category]int)
	markerPassing := 0
	markerTotal := 0

	for _, f := range res.Files {
		if len(f.Violations) > 0 {
			r.FilesWithViolations++
		}
		seen := make(map[core.Category]bool)
		for _, v := range f.Violations {
			counts[v.Category]++
			if !seen[v.Category] {
				seen[v.Category] = true
				failing[v.Category]++
			}
		}
		markerTotal += f.MarkerScore.Percent
		if f.MarkerScore.Passes(exp.PassThreshold) {
			markerPassing++
		}
		if f.Repair != nil && f.Repair.Changed() {
			r.Repaired = append(r.Repaired, Repaired{File: f.File, State: f.Repair.State, Changes: f.Repair.Changes})
			if f.Repair.State == repair.Written {
				r.FilesRepaired++
			}
		}
	}
	for _, v := range res.SiteViolations {
		counts[v.Category]++
	}

	if r.FilesScanned > 0 {
		r.AverageMarkerScore = float64(markerTotal) / float64(r.FilesScanned)
	}

	for _, c := range core.Categories() {
		if !active(c) {
			continue
		}
		s := CategorySummary{Category: c, Violations: counts[c], Total: r.FilesScanned}
		switch c {
		case core.CategoryBuildSystem:
			// one site-wide score rather than a per-file rate
			s.Total = 1
			s.PassRate = float64(res.BuildScore.Percent)
			if res.BuildScore.Passes(exp.PassThreshold) {
				s.Passing = 1
			}
		case core.CategoryMarkers:
			s.Passing = markerPassing
		default:
			s.Passing = r.FilesScanned - failing[c]
		}
		if c != core.CategoryBuildSystem && s.Total > 0 {
			s.PassRate = float64(s.Passing) * 100 / float64(s.Total)
		}
		s.Passes = s.PassRate >= float64(exp.PassThreshold)
		r.Categories = append(r.Categories, s)
	}

	for _, v := range res.Violations() {
		if !active(v.Category) {
			continue
		}
		r.Violations = append(r.Violations, v)
		switch v.Severity {
		case core.SeverityError:
			r.ErrorCount++
		case core.SeverityWarning:
			r.WarningCount++
		}
	}
	r.ViolationCount = len(r.Violations)
	sortViolations(r.Violations)

	r.Regions = regionSummaries(res, o.resolver)
	r.Verdict = verdict(r)
	return r
}

func verdict(r *Report) Verdict {
	if r.FilesScanned == 0 || r.ErrorCount > 0 {
		return VerdictNeedsWork
	}
	for _, c := range r.Categories {
		if !c.Passes {
			return VerdictNeedsWork
		}
	}
	return VerdictPass
}

func countFailed(errs []*pipeline.FileError) int {
	paths := make(map[string]bool, len(errs))
	for _, e := range errs {
		paths[e.Path] = true
	}
	return len(paths)
}

func sortViolations(vs []core.Violation) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.RuleID < b.RuleID
	})
}

func regionSummaries(res *pipeline.Result, resolver *region.Resolver) []RegionSummary {
	byName := make(map[string]*RegionSummary)
	var order []string
	if resolver != nil {
		for _, reg := range resolver.Regions() {
			order = append(order, string(reg))
		}
	}
	order = append(order, region.Unknown.String())

	for _, f := range res.Files {
		s, ok := byName[f.Region]
		if !ok {
			s = &RegionSummary{Region: f.Region, Display: f.Region}
			byName[f.Region] = s
		}
		s.Files++
		s.Violations += len(f.Violations)
		if len(f.Violations) > 0 {
			s.FilesWithViolations++
		}
	}

	var out []RegionSummary
	for _, name := range order {
		s, ok := byName[name]
		if !ok {
			continue
		}
		if resolver != nil {
			s.Display = resolver.Display(region.Region(name))
			if phone, ok := resolver.Phone(region.Region(name)); ok {
				s.Phone = region.FormatPhone(phone)
			}
		}
		out = append(out, *s)
		delete(byName, name)
	}
	// regions missing from the resolver, if any, in name order
	var rest []string
	for name := range byName {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	for _, name := range rest {
		out = append(out, *byName[name])
	}
	return out
}
