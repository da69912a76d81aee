package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/leapstack-labs/siteaudit/internal/watch"
	"github.com/leapstack-labs/siteaudit/pkg/pipeline"
	"github.com/leapstack-labs/siteaudit/pkg/report"
	"github.com/spf13/cobra"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	Path     string
	Debounce time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Re-audit the site whenever a page changes",
		Long: `Run an audit, then watch the site root and audit again after pages
change. Bursts of changes are debounced into one audit.

Press Ctrl+C to stop.`,
		Example: `  # Watch the configured root
  siteaudit watch

  # Wait two seconds of quiet before re-auditing
  siteaudit watch --debounce 2s`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Path = args[0]
			}
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 0, "Quiet period before re-auditing (default from config)")

	cmd.Annotations = map[string]string{
		ExitStatusAnnotation: "Runs until interrupted. A NEEDS-WORK verdict is reported but does not stop the watch.",
	}

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
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

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = cmdCtx.Cfg.Watch.Debounce
	}

	ctx, stop := signal.NotifyContext(commandCtx(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	audit := func(ctx context.Context) {
		res, err := pipeline.Run(ctx, popts)
		if err != nil {
			if ctx.Err() == nil {
				cmdCtx.Logger.Error("audit failed", "error", err)
			}
			return
		}
		rep := report.Build(res, cmdCtx.Cfg.Expectations, report.WithResolver(popts.Resolver))
		if err := renderReport(cmdCtx.Renderer, rep); err != nil {
			cmdCtx.Logger.Error("render failed", "error", err)
		}
	}

	audit(ctx)
	cmdCtx.Renderer.Muted(fmt.Sprintf("Watching %s for changes (Ctrl+C to stop)", root))

	return watch.Run(ctx, watch.Options{
		Root:       root,
		Extensions: popts.Walker.Extensions,
		Exclude:    popts.Walker.Exclude,
		Debounce:   debounce,
		Logger:     cmdCtx.Logger,
	}, func(ctx context.Context, changed []string) {
		cmdCtx.Logger.Info("change detected", "files", len(changed), "first", changed[0])
		audit(ctx)
	})
}
