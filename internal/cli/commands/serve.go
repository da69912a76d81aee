package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/siteaudit/internal/metrics"
	"github.com/leapstack-labs/siteaudit/internal/webhook"
	"github.com/leapstack-labs/siteaudit/pkg/pipeline"
	"github.com/spf13/cobra"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Addr          string
	ForwardURL    string
	AuditInterval time.Duration
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the lead capture webhook and metrics endpoint",
		Long: `Start an HTTP server that accepts checklist leads and chatbot events on
POST /leads, resolves each lead's region from its zip code and forwards it
to the CRM.

Without a forward URL, leads are only logged. The CRM token is read from
the environment variable named by serve.token_env.

GET /metrics exposes Prometheus metrics. With --audit-interval the site is
audited periodically so the scan metrics stay current.`,
		Example: `  # Serve on the configured address
  siteaudit serve

  # Forward leads to a CRM and audit the site every 10 minutes
  SITEAUDIT_FORWARD_TOKEN=... siteaudit serve --forward-url https://crm.example.com/contacts --audit-interval 10m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&opts.ForwardURL, "forward-url", "", "CRM endpoint leads are posted to")
	cmd.Flags().DurationVar(&opts.AuditInterval, "audit-interval", 0, "Audit the site root this often (0 disables)")

	cmd.Annotations = map[string]string{
		ExitStatusAnnotation: "0 after a graceful shutdown on SIGINT or SIGTERM; 1 when the listener fails.",
	}

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Cfg
	logger := cmdCtx.Logger

	resolver, err := cmdCtx.Resolver()
	if err != nil {
		return err
	}
	m := metrics.New()

	var fwd webhook.Forwarder = webhook.LogForwarder{Logger: logger}
	forwardURL := opts.ForwardURL
	if forwardURL == "" {
		forwardURL = cfg.Serve.ForwardURL
	}
	if forwardURL != "" {
		token := os.Getenv(cfg.Serve.TokenEnv)
		if token == "" {
			logger.Warn("forwarding leads without a token", "env", cfg.Serve.TokenEnv)
		}
		fwd = webhook.NewHTTPForwarder(forwardURL, token)
	}

	handler, err := webhook.NewRouter(webhook.Options{
		Resolver:  resolver,
		Forwarder: fwd,
		Metrics:   m,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	addr := opts.Addr
	if addr == "" {
		addr = cfg.Serve.Addr
	}
	srv := &webhook.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Serve.ReadTimeout,
		WriteTimeout: cfg.Serve.WriteTimeout,
		Logger:       logger,
	}

	ctx, stop := signal.NotifyContext(commandCtx(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmdCtx.Renderer.Success("Serving leads on " + addr)

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return srv.Serve(egctx)
	})
	if opts.AuditInterval > 0 {
		eg.Go(func() error {
			auditLoop(egctx, cmdCtx, m, opts.AuditInterval)
			return nil
		})
	}
	return eg.Wait()
}

// auditLoop audits the configured root on every tick, feeding m. Failures
// are logged and the loop keeps going.
func auditLoop(ctx context.Context, cmdCtx *CommandContext, m *metrics.Metrics, every time.Duration) {
	audit := func() {
		root, err := cmdCtx.ScanRoot(nil)
		if err != nil {
			cmdCtx.Logger.Error("scheduled audit skipped", "error", err)
			return
		}
		popts, err := cmdCtx.PipelineOptions(root, nil)
		if err != nil {
			cmdCtx.Logger.Error("scheduled audit skipped", "error", err)
			return
		}
		popts.Observer = m
		res, err := pipeline.Run(ctx, popts)
		if err != nil {
			cmdCtx.Logger.Error("scheduled audit failed", "error", err)
			return
		}
		cmdCtx.Logger.Info("scheduled audit complete",
			"files", len(res.Files),
			"violations", len(res.Violations()),
			"duration", res.Duration)
	}

	audit()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			audit()
		}
	}
}
