package commands

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/siteaudit/internal/cli/output"
	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/lint"
	"github.com/leapstack-labs/siteaudit/pkg/lint/site"
	"github.com/spf13/cobra"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Category string // Filter by category
	Scope    string // Filter by scope: file, site
	Verbose  bool   // Show full documentation
	Format   string // Output format
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List available audit rules",
		Long: `List all available audit rules with their documentation.

Rules are organized by scope (page or site) and category (phone, markers,
navigation, build-system). Use --verbose to see rationale and fix guidance.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # List all rules
  siteaudit rules

  # Show details for a specific rule
  siteaudit rules PH01

  # List navigation rules only
  siteaudit rules --category navigation

  # Output as JSON
  siteaudit rules --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRule(cmd, args[0], opts)
			}
			return listRules(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Category, "category", "c", "", "Filter by category")
	cmd.Flags().StringVar(&opts.Scope, "scope", "", "Filter by scope: file, site")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "V", false, "Show full documentation")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, markdown")

	return cmd
}

// allRules returns page and site rules, page rules first.
func allRules() []core.RuleInfo {
	var infos []core.RuleInfo
	for _, r := range lint.GetAll() {
		infos = append(infos, r.Info())
	}
	for _, r := range site.GetAll() {
		infos = append(infos, r.Info())
	}
	return infos
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	r, err := newRenderer(cmd, opts.Format)
	if err != nil {
		return err
	}

	rules := filterRulesByOptions(allRules(), opts)
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Scope != rules[j].Scope {
			return rules[i].Scope < rules[j].Scope
		}
		if rules[i].Category != rules[j].Category {
			return rules[i].Category < rules[j].Category
		}
		return rules[i].ID < rules[j].ID
	})

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return listRulesJSON(r, rules)
	case output.ModeMarkdown:
		return listRulesMarkdown(r, rules, opts.Verbose)
	default:
		return listRulesText(r, rules, opts.Verbose)
	}
}

func filterRulesByOptions(rules []core.RuleInfo, opts *RulesOptions) []core.RuleInfo {
	if opts.Category == "" && opts.Scope == "" {
		return rules
	}

	var filtered []core.RuleInfo
	for _, r := range rules {
		if opts.Category != "" && string(r.Category) != strings.ToLower(opts.Category) {
			continue
		}
		if opts.Scope != "" && r.Scope != strings.ToLower(opts.Scope) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

func showRule(cmd *cobra.Command, ruleID string, opts *RulesOptions) error {
	r, err := newRenderer(cmd, opts.Format)
	if err != nil {
		return err
	}

	var rule *core.RuleInfo
	for _, ri := range allRules() {
		if strings.EqualFold(ri.ID, ruleID) {
			rule = &ri
			break
		}
	}
	if rule == nil {
		return fmt.Errorf("rule %q not found", ruleID)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(rule)
	case output.ModeMarkdown:
		return showRuleMarkdown(r, rule)
	default:
		return showRuleText(r, rule)
	}
}

func scopeLabel(scope string) string {
	if scope == "site" {
		return "Site Rules"
	}
	return "Page Rules"
}

// listRulesText outputs rules in styled text format.
func listRulesText(r *output.Renderer, rules []core.RuleInfo, verbose bool) error {
	styles := r.Styles()
	titleCaser := cases.Title(language.English)

	pageCount, siteCount := countByScope(rules)
	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("Audit Rules (%d Page, %d Site)", pageCount, siteCount)))
	r.Println("")

	currentScope := ""
	currentCategory := core.Category("")
	for _, rule := range rules {
		if rule.Scope != currentScope {
			currentScope = rule.Scope
			currentCategory = ""
			r.Println(styles.Header2.Render(scopeLabel(currentScope)))
			r.Println("")
		}
		if rule.Category != currentCategory {
			currentCategory = rule.Category
			r.Println(styles.Bold.Render("  " + titleCaser.String(string(currentCategory))))
		}

		r.Printf("    %s  %s - %s\n",
			styles.Muted.Render(rule.ID),
			rule.Name,
			severityStyle(styles, rule.DefaultSeverity).Render(rule.DefaultSeverity.String()),
		)
		if verbose {
			r.Println(styles.Muted.Render("        " + rule.Description))
			if rule.Rationale != "" {
				r.Println(styles.Muted.Render("        Why: " + truncateOneLine(rule.Rationale, 80)))
			}
			r.Println("")
		}
	}

	r.Println("")
	r.Println(styles.Muted.Render("Use 'siteaudit rules <rule-id>' for detailed documentation"))
	r.Println("")
	return nil
}

// listRulesMarkdown outputs rules in markdown format.
func listRulesMarkdown(r *output.Renderer, rules []core.RuleInfo, verbose bool) error {
	titleCaser := cases.Title(language.English)
	r.Println("# Audit Rules")
	r.Println("")

	currentScope := ""
	currentCategory := core.Category("")
	for _, rule := range rules {
		if rule.Scope != currentScope {
			currentScope = rule.Scope
			currentCategory = ""
			r.Println("## " + scopeLabel(currentScope))
			r.Println("")
		}
		if rule.Category != currentCategory {
			currentCategory = rule.Category
			r.Println("### " + titleCaser.String(string(currentCategory)))
			r.Println("")
		}

		r.Printf("- **%s** - %s (`%s`)\n", rule.ID, rule.Name, rule.DefaultSeverity.String())
		if verbose {
			r.Println("  " + rule.Description)
			if rule.Rationale != "" {
				r.Println("  > " + rule.Rationale)
			}
		}
	}

	r.Println("")
	return nil
}

// RulesJSONOutput is the JSON output structure for rules listing.
type RulesJSONOutput struct {
	Rules []core.RuleInfo `json:"rules"`
	Count struct {
		Page  int `json:"page"`
		Site  int `json:"site"`
		Total int `json:"total"`
	} `json:"count"`
}

func listRulesJSON(r *output.Renderer, rules []core.RuleInfo) error {
	out := RulesJSONOutput{Rules: rules}
	if out.Rules == nil {
		out.Rules = []core.RuleInfo{}
	}
	out.Count.Page, out.Count.Site = countByScope(rules)
	out.Count.Total = len(rules)
	return r.JSON(out)
}

func countByScope(rules []core.RuleInfo) (page, siteWide int) {
	for _, rule := range rules {
		if rule.Scope == "site" {
			siteWide++
		} else {
			page++
		}
	}
	return page, siteWide
}

// showRuleText displays detailed rule info in text format.
func showRuleText(r *output.Renderer, rule *core.RuleInfo) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("%s - %s", rule.ID, rule.Name)))
	r.Println("")

	r.Printf("  %s: %s\n", styles.Bold.Render("Scope"), rule.Scope)
	r.Printf("  %s: %s\n", styles.Bold.Render("Category"), rule.Category)
	r.Printf("  %s: %s\n", styles.Bold.Render("Severity"), rule.DefaultSeverity.String())
	r.Println("")

	r.Println(styles.Bold.Render("Description"))
	r.Println("  " + rule.Description)
	r.Println("")

	if rule.Rationale != "" {
		r.Println(styles.Bold.Render("Why This Matters"))
		r.Println("  " + rule.Rationale)
		r.Println("")
	}
	if rule.Fix != "" {
		r.Println(styles.Bold.Render("How to Fix"))
		r.Println("  " + rule.Fix)
		r.Println("")
	}
	return nil
}

// showRuleMarkdown displays detailed rule info in markdown format.
func showRuleMarkdown(r *output.Renderer, rule *core.RuleInfo) error {
	r.Printf("# %s - %s\n\n", rule.ID, rule.Name)
	r.Printf("**Scope:** %s | **Category:** %s | **Severity:** `%s`\n\n", rule.Scope, rule.Category, rule.DefaultSeverity.String())
	r.Println(rule.Description)
	r.Println("")

	if rule.Rationale != "" {
		r.Println("## Why This Matters")
		r.Println("")
		r.Println(rule.Rationale)
		r.Println("")
	}
	if rule.Fix != "" {
		r.Println("## How to Fix")
		r.Println("")
		r.Println(rule.Fix)
		r.Println("")
	}
	return nil
}

func truncateOneLine(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
