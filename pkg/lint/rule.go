package lint

import (
	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/extract"
	"github.com/leapstack-labs/siteaudit/pkg/region"
)

// Context is everything a file rule may inspect.
type Context struct {
	File         *core.FileRecord
	Facts        *extract.Facts
	Region       region.Region
	Resolver     *region.Resolver
	Expectations *core.Expectations
}

// Check is the function signature for file-level rule checks.
type Check func(ctx *Context) []core.Violation

// RuleDef is a file-level rule definition.
type RuleDef struct {
	ID          string        // Unique identifier, e.g. "PH01"
	Name        string        // Dotted name, e.g. "phone.regional-mismatch"
	Category    core.Category // Report grouping
	Description string
	Severity    core.Severity // Default severity
	Check       Check

	Rationale string // Why this rule exists
	Fix       string // How to resolve violations
}

// Info returns the rule's documentation metadata.
func (r RuleDef) Info() core.RuleInfo {
	return core.RuleInfo{
		ID:              r.ID,
		Name:            r.Name,
		Category:        r.Category,
		Description:     r.Description,
		DefaultSeverity: r.Severity,
		Scope:           "file",
		Rationale:       r.Rationale,
		Fix:             r.Fix,
	}
}

// Violation builds a violation for this rule against the context's file.
func (r RuleDef) Violation(ctx *Context, message string) core.Violation {
	v := core.Violation{
		File:     ctx.File.RelPath,
		RuleID:   r.ID,
		Category: r.Category,
		Severity: r.Severity,
		Message:  message,
	}
	if ctx.Region.IsKnown() {
		v.Region = string(ctx.Region)
	}
	return v
}
