package rules

import (
	"fmt"

	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/lint"
	"github.com/leapstack-labs/siteaudit/pkg/region"
)

var ph01 = lint.RuleDef{
	ID:          "PH01",
	Name:        "phone.regional-mismatch",
	Category:    core.CategoryPhone,
	Description: "Phone number differs from the region's canonical number",
	Severity:    core.SeverityError,
	Rationale:   "Each regional page must route callers to that region's office.",
	Fix:         "Run `siteaudit repair --phones --regional` or edit the number by hand.",
}

func init() {
	ph01.Check = checkRegionalPhone
	lint.Register(ph01)
}

// checkRegionalPhone flags every phone occurrence whose digits differ from
// the canonical phone of the page's region. Pages with no resolved region
// are never checked.
func checkRegionalPhone(ctx *lint.Context) []core.Violation {
	if !ctx.Region.IsKnown() || ctx.Resolver == nil {
		return nil
	}
	canonical, ok := ctx.Resolver.Phone(ctx.Region)
	if !ok {
		return nil
	}

	var violations []core.Violation
	for _, p := range ctx.Facts.Phones {
		if p.Digits == canonical {
			continue
		}
		v := ph01.Violation(ctx, fmt.Sprintf("Phone %s does not match %s number %s",
			p.Raw, ctx.Resolver.Display(ctx.Region), region.FormatPhone(canonical)))
		v.Found = p.Digits
		v.Expected = canonical
		v.Line = p.Line
		violations = append(violations, v)
	}
	return violations
}
