package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/siteaudit/internal/cli/config"
	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/lint"
	"github.com/leapstack-labs/siteaudit/pkg/pipeline"
	"github.com/leapstack-labs/siteaudit/pkg/repair"
	"github.com/leapstack-labs/siteaudit/pkg/report"
	"github.com/spf13/cobra"
)

// ErrNeedsWork is returned when the audit verdict is not PASS.
var ErrNeedsWork = errors.New("site audit verdict: NEEDS-WORK")

// AuditOptions holds options for the audit command.
type AuditOptions struct {
	Path       string   // Site root; defaults to the configured root
	ReportFile string   // Also write the JSON report here
	Disable    []string // Rule IDs to disable
	Rules      []string // Run only specific rules
	Severity   string   // Minimum severity to list: error, warning, info, hint
	Categories []string // Restrict to these categories
}

// NewAuditCommand creates the audit command.
func NewAuditCommand() *cobra.Command {
	opts := &AuditOptions{}
	cmd := &cobra.Command{
		Use:   "audit [path]",
		Short: "Audit every page of a site for consistency",
		Long: `Scan every HTML page under the site root and check it against the
expectation table: regional phone numbers, content markers, navigation
structure and build system artifacts.

The command exits with an error when the verdict is NEEDS-WORK, so it can
gate a deploy.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Audit the configured site root
  siteaudit audit

  # Audit a specific directory with 4 workers
  siteaudit audit ./public --workers 4

  # Only check phone numbers
  siteaudit audit --category phone

  # Write the JSON report for CI
  siteaudit audit --report-file audit.json

  # Hide warnings and below
  siteaudit audit --severity error`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Path = args[0]
			}
			return runAudit(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ReportFile, "report-file", "", "Write the JSON report to this file")
	cmd.Flags().StringSliceVar(&opts.Disable, "disable", nil, "Rule IDs to disable")
	cmd.Flags().StringSliceVar(&opts.Rules, "rule", nil, "Run only specific rules")
	cmd.Flags().StringVar(&opts.Severity, "severity", "", "Minimum severity to list: error, warning, info, hint")
	cmd.Flags().StringSliceVar(&opts.Categories, "category", nil, "Only evaluate these categories (phone, markers, navigation, build-system)")

	_ = cmd.RegisterFlagCompletionFunc("category", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		var names []string
		for _, c := range core.Categories() {
			names = append(names, string(c))
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	cmd.Annotations = map[string]string{
		ExitStatusAnnotation: "1 when the verdict is NEEDS-WORK: an error-severity violation, a category below the pass threshold, or no pages scanned.",
	}

	return cmd
}

func runAudit(cmd *cobra.Command, opts *AuditOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Cfg

	var args []string
	if opts.Path != "" {
		args = []string{opts.Path}
	}
	root, err := cmdCtx.ScanRoot(args)
	if err != nil {
		return err
	}

	lintCfg, cats, err := buildLintConfig(cfg, opts.Disable, opts.Rules, opts.Categories)
	if err != nil {
		return err
	}

	popts, err := cmdCtx.PipelineOptions(root, lintCfg)
	if err != nil {
		return err
	}
	res, err := pipeline.Run(commandCtx(cmd), popts)
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	rep := report.Build(res, cfg.Expectations, report.WithCategories(cats...), report.WithResolver(popts.Resolver))

	reportFile := opts.ReportFile
	if reportFile == "" {
		reportFile = cfg.ReportFile
	}
	if reportFile != "" {
		if err := repair.WriteJSONAtomic(reportFile, rep); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		cmdCtx.Logger.Info("report written", "path", reportFile)
	}

	if rep.Violations, err = filterBySeverity(rep.Violations, opts.Severity); err != nil {
		return err
	}
	if err := renderReport(cmdCtx.Renderer, rep); err != nil {
		return err
	}

	if !rep.Passed() {
		return ErrNeedsWork
	}
	return nil
}

// buildLintConfig merges the lint section of the config with CLI flags.
// Flags take precedence.
func buildLintConfig(cfg *config.Config, disable, only, categories []string) (*lint.Config, []core.Category, error) {
	lintCfg := cfg.LintConfig()
	for _, id := range disable {
		lintCfg.Disable(strings.ToUpper(strings.TrimSpace(id)))
	}
	for _, id := range only {
		lintCfg.Only(strings.ToUpper(strings.TrimSpace(id)))
	}
	var cats []core.Category
	for _, name := range categories {
		c, ok := core.ParseCategory(name)
		if !ok {
			return nil, nil, fmt.Errorf("unknown category %q", name)
		}
		lintCfg.Category(c)
		cats = append(cats, c)
	}
	return lintCfg, cats, nil
}
