package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/siteaudit/internal/cli/output"
	"github.com/leapstack-labs/siteaudit/pkg/region"
	"github.com/spf13/cobra"
)

// RegionInfo is one row of the regions listing.
type RegionInfo struct {
	Name     string   `json:"name"`
	Display  string   `json:"display"`
	Phone    string   `json:"phone"`
	Patterns []string `json:"path_patterns,omitempty"`
}

// NewRegionsCommand creates the regions command.
func NewRegionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "Show the region table",
		Long: `Show every configured region with its canonical phone number and the
path patterns that select it. The first matching pattern wins.`,
		Example: `  # List regions
  siteaudit regions

  # Find the region for a zip code
  siteaudit regions zip 20814`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRegions(cmd)
		},
	}
	cmd.AddCommand(newRegionsZipCommand())
	return cmd
}

func newRegionsZipCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "zip <zip>",
		Short: "Look up the region for a zip code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegionsZip(cmd, args[0])
		},
	}
}

func regionInfos(res *region.Resolver) []RegionInfo {
	patterns := make(map[string][]string)
	for _, p := range res.PathRules() {
		patterns[p.Region] = append(patterns[p.Region], p.Contains)
	}
	var out []RegionInfo
	for _, reg := range res.Regions() {
		phone, _ := res.Phone(reg)
		out = append(out, RegionInfo{
			Name:     string(reg),
			Display:  res.Display(reg),
			Phone:    region.FormatPhone(phone),
			Patterns: patterns[string(reg)],
		})
	}
	return out
}

func runRegions(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	res, err := cmdCtx.Resolver()
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer
	infos := regionInfos(res)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(infos)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Regions"))
	default:
		r.Header(1, "Regions")
	}

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{info.Name, info.Display, info.Phone, strings.Join(info.Patterns, ", ")})
	}
	r.Table([]string{"Region", "Display", "Phone", "Path patterns"}, rows)

	if def := cmdCtx.Cfg.Expectations.DefaultRegion; def != "" {
		r.Println("")
		r.Println(output.FormatKeyValue("Default region", def))
	}
	return nil
}

// ZipLookup is the JSON output of regions zip.
type ZipLookup struct {
	Zip     string `json:"zip"`
	Region  string `json:"region"`
	Display string `json:"display"`
	Phone   string `json:"phone,omitempty"`
}

func runRegionsZip(cmd *cobra.Command, zip string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	res, err := cmdCtx.Resolver()
	if err != nil {
		return err
	}

	reg := res.FromZip(zip)
	lookup := ZipLookup{Zip: zip, Region: reg.String(), Display: res.Display(reg)}
	if phone, ok := res.Phone(reg); ok {
		lookup.Phone = region.FormatPhone(phone)
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(lookup)
	}
	if lookup.Phone == "" {
		r.Println(fmt.Sprintf("%s: %s", zip, lookup.Display))
		return nil
	}
	r.Println(fmt.Sprintf("%s: %s %s", zip, lookup.Display, lookup.Phone))
	return nil
}
