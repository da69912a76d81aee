package lint

import (
	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/extract"
	"github.com/leapstack-labs/siteaudit/pkg/region"
)

// Analyzer runs file rules against extracted facts.
// It is read-only after construction and safe for concurrent use.
type Analyzer struct {
	config       *Config
	expectations *core.Expectations
	resolver     *region.Resolver
}

// NewAnalyzer creates an analyzer over a validated expectation table.
func NewAnalyzer(config *Config, exp *core.Expectations, resolver *region.Resolver) *Analyzer {
	if config == nil {
		config = NewConfig()
	}
	return &Analyzer{config: config, expectations: exp, resolver: resolver}
}

// Config returns the analyzer configuration.
func (a *Analyzer) Config() *Config { return a.config }

// Evaluate runs every enabled rule in ID order. Violations within a rule
// keep the rule's own order, which follows document order.
func (a *Analyzer) Evaluate(file *core.FileRecord, facts *extract.Facts, r region.Region) []core.Violation {
	if file == nil || facts == nil {
		return nil
	}

	ctx := &Context{
		File:         file,
		Facts:        facts,
		Region:       r,
		Resolver:     a.resolver,
		Expectations: a.expectations,
	}

	var violations []core.Violation
	for _, rule := range GetAll() {
		if !a.config.Allows(rule.ID, rule.Category) {
			continue
		}

		found := rule.Check(ctx)

		// Apply severity overrides
		for i := range found {
			found[i].Severity = a.config.GetSeverity(rule.ID, found[i].Severity)
		}
		violations = append(violations, found...)
	}
	return violations
}
