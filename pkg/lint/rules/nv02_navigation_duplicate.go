package rules

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/lint"
)

var nv02 = lint.RuleDef{
	ID:          "NV02",
	Name:        "navigation.duplicate",
	Category:    core.CategoryNavigation,
	Description: "Page has more than one navigation block",
	Severity:    core.SeverityWarning,
	Rationale:   "Stacked legacy menus render as duplicate navigation bars.",
	Fix:         "Run `siteaudit repair --nav`.",
}

func init() {
	nv02.Check = checkNavigationDuplicate
	lint.Register(nv02)
}

func checkNavigationDuplicate(ctx *lint.Context) []core.Violation {
	n := len(ctx.Facts.Navigation)
	if n <= 1 {
		return nil
	}
	v := nv02.Violation(ctx, fmt.Sprintf("Found %d navigation blocks, expected 1", n))
	v.Found = strconv.Itoa(n)
	v.Expected = "1"
	return []core.Violation{v}
}
