package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/leapstack-labs/siteaudit/internal/cli/config"
	"github.com/leapstack-labs/siteaudit/internal/cli/output"
	"github.com/leapstack-labs/siteaudit/pkg/extract"
	"github.com/leapstack-labs/siteaudit/pkg/pipeline"
	"github.com/leapstack-labs/siteaudit/pkg/region"
	"github.com/leapstack-labs/siteaudit/pkg/repair"
	"github.com/leapstack-labs/siteaudit/pkg/report"
	"github.com/spf13/cobra"
)

// ErrRepairFailed is returned when at least one file could not be repaired.
var ErrRepairFailed = errors.New("some files could not be repaired")

// RepairOptions holds options for the repair command.
type RepairOptions struct {
	Path        string
	Nav         bool
	Phones      bool
	Regional    bool
	DryRun      bool
	NavTemplate string
}

// NewRepairCommand creates the repair command.
func NewRepairCommand() *cobra.Command {
	opts := &RepairOptions{}
	cmd := &cobra.Command{
		Use:   "repair [path]",
		Short: "Rewrite pages to fix navigation and phone problems",
		Long: `Rewrite site pages in place to fix the problems audit reports.

--nav replaces every navigation container with one canonical block directly
after <body> and strips legacy navigation fragments.
--phones applies the phone_corrections table; with --regional every phone
on a page with a known region is rewritten to that region's number.

Every file is backed up under the backup directory before it is replaced.
Use 'siteaudit rollback' to restore a run.`,
		Example: `  # Preview all repairs
  siteaudit repair --nav --phones --dry-run

  # Rebuild navigation using a custom template
  siteaudit repair --nav --nav-template templates/nav.html

  # Force regional phone numbers
  siteaudit repair --regional`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Path = args[0]
			}
			return runRepair(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Nav, "nav", false, "Normalise navigation blocks")
	cmd.Flags().BoolVar(&opts.Phones, "phones", false, "Apply the phone corrections table")
	cmd.Flags().BoolVar(&opts.Regional, "regional", false, "Rewrite phones to the page's regional number (implies --phones)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Show what would change without writing")
	cmd.Flags().StringVar(&opts.NavTemplate, "nav-template", "", "HTML file with the canonical navigation block")

	cmd.Annotations = map[string]string{
		ExitStatusAnnotation: "1 when any file could not be read, backed up or written. Files that were repaired stay repaired.",
	}

	return cmd
}

// RepairOutput is the JSON output of the repair command.
type RepairOutput struct {
	RunID     string `json:"run_id,omitempty"`
	BackupDir string `json:"backup_dir,omitempty"`
	DryRun    bool   `json:"dry_run"`

	FilesScanned        int `json:"files_scanned"`
	FilesWithViolations int `json:"files_with_violations"`
	FilesFailed         int `json:"files_failed"`
	FilesRepaired       int `json:"files_repaired"`

	Repaired []report.Repaired     `json:"repaired"`
	Errors   []*pipeline.FileError `json:"errors,omitempty"`
	Outcomes []repair.Outcome      `json:"outcomes"`
}

func runRepair(cmd *cobra.Command, opts *RepairOptions) error {
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
	popts, err := cmdCtx.PipelineOptions(root, nil)
	if err != nil {
		return err
	}

	strategies, err := buildStrategies(cmdCtx, opts, popts.Resolver)
	if err != nil {
		return err
	}
	rep, err := repair.New(repair.Options{
		Strategies: strategies,
		BackupDir:  cfg.BackupDir,
		DryRun:     opts.DryRun,
		Logger:     cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	popts.Repairer = rep

	res, err := pipeline.Run(commandCtx(cmd), popts)
	if err != nil {
		return fmt.Errorf("repair failed: %w", err)
	}

	summary := report.Build(res, cfg.Expectations, report.WithResolver(popts.Resolver))
	out := RepairOutput{
		DryRun:              opts.DryRun,
		FilesScanned:        summary.FilesScanned,
		FilesWithViolations: summary.FilesWithViolations,
		FilesFailed:         summary.FilesFailed,
		FilesRepaired:       summary.FilesRepaired,
		Repaired:            summary.Repaired,
		Errors:              res.Errors,
	}
	if !opts.DryRun && len(rep.Manifest().Files) > 0 {
		out.RunID = rep.RunID()
		out.BackupDir = rep.RunDir()
	}
	for _, f := range res.Files {
		if f.Repair != nil {
			out.Outcomes = append(out.Outcomes, *f.Repair)
		}
	}

	if err := renderRepair(cmdCtx.Renderer, &out); err != nil {
		return err
	}
	if len(res.Errors) > 0 {
		return ErrRepairFailed
	}
	return nil
}

func buildStrategies(cmdCtx *CommandContext, opts *RepairOptions, resolver *region.Resolver) ([]repair.Strategy, error) {
	exp := cmdCtx.Cfg.Expectations
	var strategies []repair.Strategy

	if opts.Nav {
		nav, err := navigationFixer(cmdCtx.Cfg, opts.NavTemplate)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, nav)
	}

	if opts.Phones || opts.Regional {
		phones, err := repair.NewPhoneFixer(exp.PhoneCorrections, resolver, opts.Regional)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, phones)
	}

	if len(strategies) == 0 {
		return nil, fmt.Errorf("nothing to repair\nHint: select at least one of --nav, --phones or --regional")
	}
	return strategies, nil
}

// navigationFixer builds the nav strategy from the template named by
// override, then the configured template, then the built-in fragment.
func navigationFixer(cfg *config.Config, override string) (*repair.NavigationFixer, error) {
	exp := cfg.Expectations
	fragment := repair.DefaultNavigation()
	tmpl := override
	if tmpl == "" {
		tmpl = cfg.NavTemplate
	}
	if tmpl != "" {
		data, err := os.ReadFile(tmpl)
		if err != nil {
			return nil, fmt.Errorf("failed to read navigation template: %w", err)
		}
		fragment = string(data)
	}
	nav, err := repair.NewNavigationFixer(fragment, extract.OptionsFrom(exp).Nav, exp.Navigation.LegacyFragments)
	if err != nil {
		return nil, fmt.Errorf("invalid navigation template: %w", err)
	}
	return nav, nil
}

func renderRepair(r *output.Renderer, out *RepairOutput) error {
	mode := r.EffectiveMode()
	if mode == output.ModeJSON {
		return r.JSON(out)
	}

	verb := "Repaired"
	if out.DryRun {
		verb = "Would repair"
	}

	if mode == output.ModeMarkdown {
		r.Println(output.FormatHeader(1, "Site Repair"))
		r.Println(output.FormatKeyValue("Scanned", fmt.Sprintf("%d files", out.FilesScanned)))
		r.Println(output.FormatKeyValue("With violations", fmt.Sprintf("%d files", out.FilesWithViolations)))
		r.Println(output.FormatKeyValue("Failed", fmt.Sprintf("%d files", out.FilesFailed)))
		r.Println(output.FormatKeyValue(verb, fmt.Sprintf("%d files", len(out.Repaired))))
		if out.RunID != "" {
			r.Println(output.FormatKeyValue("Backup run", out.RunID))
		}
		r.Println("")
		for _, f := range out.Repaired {
			r.Printf("- `%s` (%s)\n", f.File, f.State)
			for _, c := range f.Changes {
				for _, d := range c.Details {
					r.Printf("  - %s: %s\n", c.Strategy, d)
				}
			}
		}
		for _, e := range out.Errors {
			r.Printf("- `%s` failed: %s\n", e.Path, e.Message)
		}
		return nil
	}

	styles := r.Styles()
	r.Println("")
	r.Println(styles.Header1.Render("Site Repair"))
	r.Println("")
	for _, f := range out.Repaired {
		r.Println(styles.Bold.Render("  " + f.File))
		for _, c := range f.Changes {
			for _, d := range c.Details {
				r.Printf("    %s %s\n", styles.Muted.Render(c.Strategy+":"), d)
			}
		}
	}
	for _, e := range out.Errors {
		r.Println(styles.Error.Render(fmt.Sprintf("  %s failed: %s", e.Path, e.Message)))
	}
	r.Println("")
	r.Printf("  Scanned %d files, %d with violations, %d failed\n",
		out.FilesScanned, out.FilesWithViolations, out.FilesFailed)
	switch {
	case out.FilesScanned == 0:
		r.Warning("No pages found")
	case len(out.Repaired) == 0:
		r.Success("Nothing to repair")
	default:
		r.Success(fmt.Sprintf("%s %d files", verb, len(out.Repaired)))
	}
	if out.RunID != "" {
		r.Muted(fmt.Sprintf("Backup run %s (undo with 'siteaudit rollback %s')", out.RunID, out.RunID))
	}
	return nil
}
