package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/siteaudit/internal/cli/config"
	"github.com/leapstack-labs/siteaudit/internal/cli/output"
	"github.com/leapstack-labs/siteaudit/pkg/lint"
	_ "github.com/leapstack-labs/siteaudit/pkg/lint/rules" // register page rules
	"github.com/leapstack-labs/siteaudit/pkg/pipeline"
	"github.com/leapstack-labs/siteaudit/pkg/region"
	"github.com/leapstack-labs/siteaudit/pkg/walker"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// ExitStatusAnnotation is the cobra annotation describing when a command
// exits non-zero beyond plain usage or I/O errors.
const ExitStatusAnnotation = "siteaudit/exit-status"

// NewCommandContext loads the configuration (unless the root command already
// did) and builds the renderer for cmd.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	mode, err := output.ParseMode(cfg.OutputFormat)
	if err != nil {
		return nil, err
	}
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}, nil
}

// getConfig returns the configuration loaded by the root command, loading
// it from the working directory when a command runs on its own.
func getConfig() (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	return config.LoadConfig("", nil)
}

// Resolver builds the region resolver for the configured expectations.
func (c *CommandContext) Resolver() (*region.Resolver, error) {
	return region.NewResolver(c.Cfg.Expectations)
}

// ScanRoot returns the root to audit: arg when given, else the configured root.
func (c *CommandContext) ScanRoot(args []string) (string, error) {
	root := c.Cfg.Root
	if len(args) > 0 && args[0] != "" {
		abs, err := filepath.Abs(args[0])
		if err != nil {
			return "", err
		}
		root = abs
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", walker.ErrRootNotFound, root)
	}
	return root, nil
}

// WalkerOptions returns the walker settings. A backup directory inside the
// root is always excluded.
func (c *CommandContext) WalkerOptions(root string) walker.Options {
	exclude := append([]string(nil), c.Cfg.Exclude...)
	if rel, err := filepath.Rel(root, c.Cfg.BackupDir); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
		exclude = append(exclude, filepath.Base(c.Cfg.BackupDir))
	}
	return walker.Options{
		Extensions: c.Cfg.Extensions,
		Exclude:    exclude,
		Logger:     c.Logger,
	}
}

// PipelineOptions assembles a pipeline run over root.
func (c *CommandContext) PipelineOptions(root string, lintCfg *lint.Config) (pipeline.Options, error) {
	resolver, err := c.Resolver()
	if err != nil {
		return pipeline.Options{}, err
	}
	exp := c.Cfg.Expectations
	if lintCfg == nil {
		lintCfg = c.Cfg.LintConfig()
	}
	return pipeline.Options{
		Root:         root,
		Walker:       c.WalkerOptions(root),
		Expectations: &exp,
		Resolver:     resolver,
		Lint:         lintCfg,
		Workers:      c.Cfg.Workers,
		Logger:       c.Logger,
	}, nil
}

// commandCtx returns the command context, or a background context when
// the command runs outside cobra's Execute.
func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// newRenderer builds a renderer for commands that work without a site:
// an explicit format wins, then the loaded config, then auto.
func newRenderer(cmd *cobra.Command, format string) (*output.Renderer, error) {
	if format == "" {
		if cfg := config.GetCurrentConfig(); cfg != nil {
			format = cfg.OutputFormat
		}
	}
	mode, err := output.ParseMode(format)
	if err != nil {
		return nil, err
	}
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode), nil
}
