package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/leapstack-labs/siteaudit/internal/cli/output"
	"github.com/leapstack-labs/siteaudit/pkg/repair"
	"github.com/leapstack-labs/siteaudit/pkg/sitemap"
	"github.com/leapstack-labs/siteaudit/pkg/walker"
	"github.com/spf13/cobra"
)

// SitemapOptions holds options for the sitemap command.
type SitemapOptions struct {
	Path    string
	BaseURL string
	Out     string
	DryRun  bool
}

// SitemapOutput is the JSON output for the sitemap command.
type SitemapOutput struct {
	File    string            `json:"file,omitempty"`
	Pages   int               `json:"pages"`
	Entries []sitemap.URL     `json:"entries"`
	Links   sitemap.LinkStats `json:"links"`
}

// NewSitemapCommand creates the sitemap command.
func NewSitemapCommand() *cobra.Command {
	opts := &SitemapOptions{}
	cmd := &cobra.Command{
		Use:   "sitemap [path]",
		Short: "Generate sitemap.xml from the site's index pages",
		Long: `Generate a sitemap.xml listing every directory that holds an index.html.
The site root gets priority 1.0 and every other page 0.8.

Links on every page are counted, and root-relative links that point to no
page are reported.`,
		Example: `  # Write <root>/sitemap.xml
  siteaudit sitemap --base-url https://example.com

  # Preview without writing
  siteaudit sitemap --base-url https://example.com --dry-run -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Path = args[0]
			}
			return runSitemap(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "Absolute site URL (default: site_url from config)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Output file (default: <root>/sitemap.xml)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Build the sitemap without writing it")

	return cmd
}

func runSitemap(cmd *cobra.Command, opts *SitemapOptions) error {
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

	base := opts.BaseURL
	if base == "" {
		base = cmdCtx.Cfg.SiteURL
	}
	if base == "" {
		return fmt.Errorf("no base URL\nHint: pass --base-url or set site_url in siteaudit.yaml")
	}

	w, err := walker.New(root, cmdCtx.WalkerOptions(root))
	if err != nil {
		return err
	}
	res, err := sitemap.Build(w, base, time.Now())
	if err != nil {
		return err
	}

	out := &SitemapOutput{
		Pages:   res.Pages,
		Entries: res.Set.URLs,
		Links:   res.Links,
	}
	if out.Entries == nil {
		out.Entries = []sitemap.URL{}
	}

	if !opts.DryRun {
		file := opts.Out
		if file == "" {
			file = filepath.Join(root, "sitemap.xml")
		} else if file, err = filepath.Abs(file); err != nil {
			return err
		}
		data, err := res.Set.Encode()
		if err != nil {
			return err
		}
		if err := repair.WriteFileAtomic(file, data, 0o644); err != nil {
			return fmt.Errorf("failed to write sitemap: %w", err)
		}
		cmdCtx.Logger.Info("sitemap written", "path", file, "entries", len(res.Set.URLs))
		out.File = file
	}

	return renderSitemap(cmdCtx.Renderer, out)
}

func renderSitemap(r *output.Renderer, out *SitemapOutput) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Sitemap"))
		r.Println(output.FormatKeyValue("Entries", fmt.Sprintf("%d", len(out.Entries))))
		r.Println(output.FormatKeyValue("Pages scanned", fmt.Sprintf("%d", out.Pages)))
		r.Println(output.FormatKeyValue("Links", fmt.Sprintf("%d internal, %d external, %d other",
			out.Links.Internal, out.Links.External, out.Links.Other)))
		if out.File != "" {
			r.Println(output.FormatKeyValue("File", out.File))
		}
		if len(out.Links.Missing) > 0 {
			r.Println("")
			r.Println(output.FormatHeader(2, "Missing link targets"))
			for _, m := range out.Links.Missing {
				r.Printf("- `%s`\n", m)
			}
		}
		return nil
	}

	styles := r.Styles()
	for _, e := range out.Entries {
		r.Printf("  %s %s\n", styles.Muted.Render(e.Priority), e.Loc)
	}
	r.Println("")
	r.Printf("Links: %d total (%d internal, %d external, %d other)\n",
		out.Links.Total, out.Links.Internal, out.Links.External, out.Links.Other)
	for _, m := range out.Links.Missing {
		r.Warning("no page for " + m)
	}
	if out.File == "" {
		r.Success(fmt.Sprintf("Sitemap would list %d pages", len(out.Entries)))
		return nil
	}
	r.Success(fmt.Sprintf("Generated sitemap with %d pages: %s", len(out.Entries), out.File))
	return nil
}
