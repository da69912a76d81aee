package rules

import (
	"fmt"

	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/lint"
)

var nv01 = lint.RuleDef{
	ID:          "NV01",
	Name:        "navigation.missing",
	Category:    core.CategoryNavigation,
	Description: "Page has no canonical navigation block",
	Severity:    core.SeverityWarning,
	Fix:         "Run `siteaudit repair --nav`.",
}

func init() {
	nv01.Check = checkNavigationMissing
	lint.Register(nv01)
}

func checkNavigationMissing(ctx *lint.Context) []core.Violation {
	if ctx.Facts.CanonicalNavCount() > 0 {
		return nil
	}
	class := ctx.Expectations.Navigation.CanonicalClass
	v := nv01.Violation(ctx, fmt.Sprintf("No <nav class=%q> block found", class))
	v.Found = fmt.Sprintf("%d navigation blocks", len(ctx.Facts.Navigation))
	v.Expected = "nav." + class
	return []core.Violation{v}
}
