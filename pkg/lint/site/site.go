// Package site provides rules evaluated once per site root rather than per
// page.
//
//   - BS01: Build artifact missing - an expected build-system file or directory is absent
package site

import (
	"sort"
	"sync"

	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/lint"
)

// Context is the input of a site rule.
type Context struct {
	Root         string
	Expectations *core.Expectations
}

// Check is the function signature for site-level rule checks.
type Check func(ctx *Context) []core.Violation

// RuleDef is a site-level rule definition.
type RuleDef struct {
	ID          string
	Name        string
	Category    core.Category
	Description string
	Severity    core.Severity
	Check       Check

	Rationale string
	Fix       string
}

// Info returns the rule's documentation metadata.
func (r RuleDef) Info() core.RuleInfo {
	return core.RuleInfo{
		ID:              r.ID,
		Name:            r.Name,
		Category:        r.Category,
		Description:     r.Description,
		DefaultSeverity: r.Severity,
		Scope:           "site",
		Rationale:       r.Rationale,
		Fix:             r.Fix,
	}
}

var (
	mu    sync.RWMutex
	rules = make(map[string]RuleDef)
)

// Register adds a site rule. Call this from init().
func Register(rule RuleDef) {
	mu.Lock()
	defer mu.Unlock()
	rules[rule.ID] = rule
}

// GetAll returns all site rules sorted by ID.
func GetAll() []RuleDef {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]RuleDef, 0, len(rules))
	for _, r := range rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetByID returns a site rule by its ID.
func GetByID(id string) (RuleDef, bool) {
	mu.RLock()
	defer mu.RUnlock()
	r, ok := rules[id]
	return r, ok
}

// Analyzer runs site rules. It shares the file analyzer's Config so one set
// of --disable/--rule/--severity flags governs both.
type Analyzer struct {
	config *lint.Config
}

// NewAnalyzer creates a site analyzer.
func NewAnalyzer(config *lint.Config) *Analyzer {
	if config == nil {
		config = lint.NewConfig()
	}
	return &Analyzer{config: config}
}

// Analyze runs every enabled site rule against ctx.
func (a *Analyzer) Analyze(ctx *Context) []core.Violation {
	if ctx == nil {
		return nil
	}

	var violations []core.Violation
	for _, rule := range GetAll() {
		if !a.config.Allows(rule.ID, rule.Category) {
			continue
		}
		found := rule.Check(ctx)
		for i := range found {
			found[i].Severity = a.config.GetSeverity(rule.ID, found[i].Severity)
		}
		violations = append(violations, found...)
	}
	return violations
}
