package site

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/siteaudit/pkg/core"
)

var bs01 = RuleDef{
	ID:          "BS01",
	Name:        "build.missing-artifact",
	Category:    core.CategoryBuildSystem,
	Description: "Expected build-system artifact is missing from the site root",
	Severity:    core.SeverityWarning,
	Rationale:   "Deploys need package.json, netlify.toml, public/ and build-scripts/.",
}

func init() {
	bs01.Check = checkBuildArtifacts
	Register(bs01)
}

// checkBuildArtifacts reports one violation per missing artifact. The
// violation's File is the missing path relative to the root.
func checkBuildArtifacts(ctx *Context) []core.Violation {
	var violations []core.Violation
	for _, artifact := range ctx.Expectations.BuildArtifacts {
		if _, err := os.Stat(filepath.Join(ctx.Root, filepath.FromSlash(artifact))); err == nil {
			continue
		}
		violations = append(violations, core.Violation{
			File:     artifact,
			RuleID:   bs01.ID,
			Category: bs01.Category,
			Expected: artifact,
			Severity: bs01.Severity,
			Message:  fmt.Sprintf("Build artifact %s not found", artifact),
		})
	}
	return violations
}
