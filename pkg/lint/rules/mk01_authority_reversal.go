package rules

import (
	"fmt"

	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/lint"
)

var mk01 = lint.RuleDef{
	ID:          "MK01",
	Name:        "markers.authority-reversal-missing",
	Category:    core.CategoryMarkers,
	Description: "Page lacks the authority reversal content marker",
	Severity:    core.SeverityWarning,
	Rationale:   "Every landing page carries the authority reversal section.",
	Fix:         "Add the authority-reversal section from the page template.",
}

func init() {
	mk01.Check = checkAuthorityReversal
	lint.Register(mk01)
}

func checkAuthorityReversal(ctx *lint.Context) []core.Violation {
	kind := ctx.Expectations.PsychologyMarker
	if kind == "" {
		return nil
	}
	if ctx.Facts.Marker(kind).Present() {
		return nil
	}

	v := mk01.Violation(ctx, fmt.Sprintf("Marker %q not found", kind))
	if spec, ok := ctx.Expectations.Marker(kind); ok && len(spec.Patterns) > 0 {
		v.Expected = spec.Patterns[0]
	}
	return []core.Violation{v}
}
