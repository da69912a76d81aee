package commands

import (
	"fmt"

	"github.com/leapstack-labs/siteaudit/internal/cli/output"
	"github.com/leapstack-labs/siteaudit/pkg/repair"
	"github.com/spf13/cobra"
)

// RollbackOptions holds options for the rollback command.
type RollbackOptions struct {
	RunID string
	List  bool
}

// NewRollbackCommand creates the rollback command.
func NewRollbackCommand() *cobra.Command {
	opts := &RollbackOptions{}
	cmd := &cobra.Command{
		Use:   "rollback [run-id]",
		Short: "Restore the files backed up by a repair run",
		Long: `Restore every file recorded in a repair run's backup manifest.

Without a run id the most recent run is restored.`,
		Example: `  # List backup runs
  siteaudit rollback --list

  # Undo the latest repair
  siteaudit rollback

  # Undo a specific run
  siteaudit rollback 20250101T120000Z-1a2b3c4d`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.RunID = args[0]
			}
			return runRollback(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.List, "list", false, "List backup runs instead of restoring")

	cmd.Annotations = map[string]string{
		ExitStatusAnnotation: "1 when the run is unknown or a file could not be restored.",
	}

	return cmd
}

func runRollback(cmd *cobra.Command, opts *RollbackOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer
	backupDir := cmdCtx.Cfg.BackupDir

	if opts.List {
		runs, err := repair.ListRuns(backupDir)
		if err != nil {
			return err
		}
		return renderRuns(r, backupDir, runs)
	}

	m, err := repair.Rollback(backupDir, opts.RunID, cmdCtx.Logger)
	if err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(m)
	}
	for _, f := range m.Files {
		r.Muted("  restored " + f.RelPath)
	}
	r.Success(fmt.Sprintf("Restored %d files from run %s", len(m.Files), m.RunID))
	return nil
}

func renderRuns(r *output.Renderer, backupDir string, runs []repair.RunInfo) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		if runs == nil {
			runs = []repair.RunInfo{}
		}
		return r.JSON(runs)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Backup Runs"))
	default:
		r.Header(1, "Backup Runs")
	}

	if len(runs) == 0 {
		r.Muted("No backup runs found in " + backupDir)
		return nil
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{run.ID, run.Created.Local().Format("2006-01-02 15:04:05"), fmt.Sprintf("%d", run.Files)})
	}
	r.Table([]string{"Run", "Created", "Files"}, rows)
	return nil
}
