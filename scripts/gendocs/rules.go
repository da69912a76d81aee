package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/lint"
	_ "github.com/leapstack-labs/siteaudit/pkg/lint/rules"
	"github.com/leapstack-labs/siteaudit/pkg/lint/site"
)

var categoryDescriptions = map[core.Category]string{
	core.CategoryPhone:       "Rules about the canonical phone number of each region.",
	core.CategoryMarkers:     "Rules about required content markers.",
	core.CategoryNavigation:  "Rules about the canonical navigation block.",
	core.CategoryBuildSystem: "Rules about the files the site build depends on.",
}

// generateRuleDocs writes one page listing every page and site rule,
// grouped by category.
func generateRuleDocs(outDir string) error {
	log.Printf("Generating rule docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var rules []core.RuleInfo
	for _, r := range lint.GetAll() {
		rules = append(rules, r.Info())
	}
	pageCount := len(rules)
	for _, r := range site.GetAll() {
		rules = append(rules, r.Info())
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Audit Rules", "Page and site rules checked by siteaudit")
	w.GeneratedMarker()

	w.Header(1, "Audit Rules")
	w.Paragraph(fmt.Sprintf("siteaudit checks **%d page rules** on every page and **%d site rules** once per site root.",
		pageCount, len(rules)-pageCount))

	w.Header(2, "Configuration")
	w.Paragraph("Rules can be disabled or re-weighted in `siteaudit.yaml`:")
	w.CodeBlock("yaml", `lint:
  disabled: [MK01]
  severity:
    NV02: warning`)

	for _, cat := range core.Categories() {
		var group []core.RuleInfo
		for _, r := range rules {
			if r.Category == cat {
				group = append(group, r)
			}
		}
		if len(group) == 0 {
			continue
		}
		w.Line(fmt.Sprintf("## %s {#%s}", capitalizeFirst(string(cat)), cat))
		w.Newline()
		if desc, ok := categoryDescriptions[cat]; ok {
			w.Paragraph(desc)
		}
		for _, r := range group {
			writeRuleDoc(w, r)
		}
	}

	log.Printf("  Generated index.md")
	return os.WriteFile(filepath.Join(outDir, "index.md"), w.Bytes(), 0600)
}

// capitalizeFirst capitalizes the first letter of a string.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// writeRuleDoc writes detailed documentation for a single rule.
func writeRuleDoc(w *MarkdownWriter, rule core.RuleInfo) {
	w.Line(fmt.Sprintf("### %s - %s {#%s}", rule.ID, rule.Name, rule.ID))
	w.Newline()

	w.Line(fmt.Sprintf("**Severity:** %s · **Scope:** %s",
		InlineCode(rule.DefaultSeverity.String()), InlineCode(rule.Scope)))
	w.Newline()

	w.Paragraph(cleanDescription(rule.Description))

	if rule.Rationale != "" {
		w.Header(4, "Why This Matters")
		w.Paragraph(rule.Rationale)
	}
	if rule.Fix != "" {
		w.Header(4, "How to Fix")
		w.Paragraph(rule.Fix)
	}

	w.Line("---")
	w.Newline()
}
