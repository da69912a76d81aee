package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/siteaudit/internal/cli/output"
	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/report"
)

// renderReport writes rep in the renderer's effective mode.
func renderReport(r *output.Renderer, rep *report.Report) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(rep)
	case output.ModeMarkdown:
		renderReportMarkdown(r, rep)
	default:
		renderReportText(r, rep)
	}
	return nil
}

func renderReportText(r *output.Renderer, rep *report.Report) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("Site Audit"))
	r.Println(styles.Muted.Render(rep.Root))
	r.Println("")

	r.Printf("  %s %d scanned, %d with violations, %d failed\n",
		styles.Bold.Render("Files:"), rep.FilesScanned, rep.FilesWithViolations, rep.FilesFailed)
	r.Printf("  %s %d (%s, %s)\n",
		styles.Bold.Render("Violations:"), rep.ViolationCount,
		styles.Error.Render(fmt.Sprintf("%d errors", rep.ErrorCount)),
		styles.Warning.Render(fmt.Sprintf("%d warnings", rep.WarningCount)))
	r.Printf("  %s %.1f%%   %s %d%%\n",
		styles.Bold.Render("Marker score:"), rep.AverageMarkerScore,
		styles.Bold.Render("Build score:"), rep.BuildScore.Percent)
	if rep.FilesRepaired > 0 {
		r.Printf("  %s %d\n", styles.Bold.Render("Repaired:"), rep.FilesRepaired)
	}
	r.Println("")

	r.Println(styles.Header2.Render("Categories"))
	r.Table(categoryTable(rep))
	r.Println("")

	if len(rep.Regions) > 0 {
		r.Println(styles.Header2.Render("Regions"))
		r.Table(regionTable(rep))
		r.Println("")
	}

	if len(rep.Violations) > 0 {
		r.Println(styles.Header2.Render("Violations"))
		currentFile := ""
		for _, v := range rep.Violations {
			if v.File != currentFile {
				currentFile = v.File
				r.Println(styles.Bold.Render("  " + v.File))
			}
			loc := ""
			if v.Line > 0 {
				loc = fmt.Sprintf("%d: ", v.Line)
			}
			r.Printf("    %s%s %s %s\n",
				styles.Muted.Render(loc),
				severityStyle(styles, v.Severity).Render(fmt.Sprintf("%-7s", v.Severity)),
				styles.Muted.Render(v.RuleID),
				v.Message)
		}
		r.Println("")
	}

	for _, e := range rep.Errors {
		r.Println(styles.Error.Render(fmt.Sprintf("  %s %s: %s", e.Op, e.Path, e.Message)))
	}

	if rep.Passed() {
		r.Println(styles.StatusSuccess.Render(fmt.Sprintf("Verdict: %s", rep.Verdict)))
	} else {
		r.Println(styles.StatusFailed.Render(fmt.Sprintf("Verdict: %s", rep.Verdict)))
	}
}

func renderReportMarkdown(r *output.Renderer, rep *report.Report) {
	r.Println(output.FormatHeader(1, "Site Audit"))
	r.Println(output.FormatKeyValue("Root", rep.Root))
	r.Println(output.FormatKeyValue("Verdict", string(rep.Verdict)))
	r.Println(output.FormatKeyValue("Files scanned", fmt.Sprintf("%d", rep.FilesScanned)))
	r.Println(output.FormatKeyValue("Files with violations", fmt.Sprintf("%d", rep.FilesWithViolations)))
	r.Println(output.FormatKeyValue("Files failed", fmt.Sprintf("%d", rep.FilesFailed)))
	r.Println(output.FormatKeyValue("Violations", fmt.Sprintf("%d (%d errors, %d warnings)",
		rep.ViolationCount, rep.ErrorCount, rep.WarningCount)))
	r.Println(output.FormatKeyValue("Average marker score", fmt.Sprintf("%.1f%%", rep.AverageMarkerScore)))
	r.Println(output.FormatKeyValue("Build score", fmt.Sprintf("%d%%", rep.BuildScore.Percent)))
	if rep.FilesRepaired > 0 {
		r.Println(output.FormatKeyValue("Files repaired", fmt.Sprintf("%d", rep.FilesRepaired)))
	}
	r.Println("")

	r.Println(output.FormatHeader(2, "Categories"))
	r.Table(categoryTable(rep))
	r.Println("")

	if len(rep.Regions) > 0 {
		r.Println(output.FormatHeader(2, "Regions"))
		r.Table(regionTable(rep))
		r.Println("")
	}

	if len(rep.Violations) > 0 {
		r.Println(output.FormatHeader(2, "Violations"))
		for _, v := range rep.Violations {
			loc := v.File
			if v.Line > 0 {
				loc = fmt.Sprintf("%s:%d", v.File, v.Line)
			}
			r.Printf("- `%s` **%s** %s: %s\n", loc, v.RuleID, v.Severity, v.Message)
		}
		r.Println("")
	}

	if len(rep.Errors) > 0 {
		r.Println(output.FormatHeader(2, "Errors"))
		for _, e := range rep.Errors {
			r.Printf("- `%s` %s: %s\n", e.Path, e.Op, e.Message)
		}
		r.Println("")
	}
}

func categoryTable(rep *report.Report) ([]string, [][]string) {
	rows := make([][]string, 0, len(rep.Categories))
	for _, c := range rep.Categories {
		status := "pass"
		if !c.Passes {
			status = "FAIL"
		}
		rows = append(rows, []string{
			string(c.Category),
			fmt.Sprintf("%.1f%%", c.PassRate),
			fmt.Sprintf("%d/%d", c.Passing, c.Total),
			fmt.Sprintf("%d", c.Violations),
			status,
		})
	}
	return []string{"Category", "Pass rate", "Passing", "Violations", "Status"}, rows
}

func regionTable(rep *report.Report) ([]string, [][]string) {
	rows := make([][]string, 0, len(rep.Regions))
	for _, s := range rep.Regions {
		rows = append(rows, []string{
			s.Display,
			s.Phone,
			fmt.Sprintf("%d", s.Files),
			fmt.Sprintf("%d", s.FilesWithViolations),
		})
	}
	return []string{"Region", "Phone", "Files", "With violations"}, rows
}

// severityStyle returns the appropriate style for a severity level.
func severityStyle(styles *output.Styles, sev core.Severity) lipgloss.Style {
	switch sev {
	case core.SeverityError:
		return styles.Error
	case core.SeverityWarning:
		return styles.Warning
	case core.SeverityInfo:
		return styles.Info
	default:
		return styles.Muted
	}
}

// filterBySeverity keeps violations at least as severe as minSeverity.
func filterBySeverity(vs []core.Violation, minSeverity string) ([]core.Violation, error) {
	if strings.TrimSpace(minSeverity) == "" {
		return vs, nil
	}
	threshold, ok := core.ParseSeverity(minSeverity)
	if !ok {
		return nil, fmt.Errorf("unknown severity %q (want error, warning, info or hint)", minSeverity)
	}
	var out []core.Violation
	for _, v := range vs {
		if v.Severity <= threshold {
			out = append(out, v)
		}
	}
	return out, nil
}
