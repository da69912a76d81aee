package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/siteaudit/internal/cli/config"
	"github.com/leapstack-labs/siteaudit/internal/cli/output"
	"github.com/leapstack-labs/siteaudit/pkg/walker"
	"github.com/spf13/cobra"
)

// Health check statuses.
const (
	statusPass  = "pass"
	statusWarn  = "warn"
	statusError = "error"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, markdown, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that siteaudit is set up correctly",
		Long: `Check the environment siteaudit runs in before auditing or repairing:

- Site root exists and contains pages
- Configuration file and expectation table
- Navigation template used by 'repair --nav'
- Backup directory is writable
- CRM token when leads are forwarded

Each problem lowers the health score (0-100).`,
		Example: `  # Run all checks
  siteaudit doctor

  # Output as JSON
  siteaudit doctor --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	ConfigFile      string        `json:"config_file,omitempty"`
	Root            string        `json:"root"`
	HealthChecks    []HealthCheck `json:"health_checks"`
	Score           int           `json:"score"`
	Recommendations []string      `json:"recommendations"`
	IssueCount      int           `json:"issue_count"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Group   string   `json:"group"`
	Status  string   `json:"status"` // "pass", "warn", "error"
	Details []string `json:"details,omitempty"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer
	if opts.Format != "" {
		if r, err = newRenderer(cmd, opts.Format); err != nil {
			return err
		}
	}

	out := buildDoctorOutput(cmdCtx)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, out)
	default:
		return renderDoctorText(r, out)
	}
}

func buildDoctorOutput(cmdCtx *CommandContext) *DoctorOutput {
	cfg := cmdCtx.Cfg
	checks := []HealthCheck{
		checkRoot(cmdCtx),
		checkConfigFile(),
		checkExpectations(cfg),
		checkNavTemplate(cfg),
		checkBackupDir(cfg.BackupDir),
		checkForwardToken(cfg),
	}

	issues := 0
	for _, c := range checks {
		if c.Status != statusPass {
			issues++
		}
	}
	return &DoctorOutput{
		ConfigFile:      config.GetConfigFileUsed(),
		Root:            cfg.Root,
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks),
		Recommendations: generateRecommendations(checks),
		IssueCount:      issues,
	}
}

func checkRoot(cmdCtx *CommandContext) HealthCheck {
	hc := HealthCheck{ID: "root", Name: "Site root", Group: "site", Status: statusPass}
	if err := cmdCtx.Cfg.ValidateRoot(); err != nil {
		hc.Status = statusError
		hc.Details = []string{err.Error()}
		return hc
	}
	w, err := walker.New(cmdCtx.Cfg.Root, cmdCtx.WalkerOptions(cmdCtx.Cfg.Root))
	if err != nil {
		hc.Status = statusError
		hc.Details = []string{err.Error()}
		return hc
	}
	pages := len(w.Collect())
	if pages == 0 {
		hc.Status = statusWarn
		hc.Details = []string{fmt.Sprintf("no pages with extensions %s", strings.Join(cmdCtx.Cfg.Extensions, ", "))}
		return hc
	}
	hc.Details = []string{fmt.Sprintf("%d pages under %s", pages, cmdCtx.Cfg.Root)}
	return hc
}

func checkConfigFile() HealthCheck {
	hc := HealthCheck{ID: "config", Name: "Configuration file", Group: "config", Status: statusPass}
	if used := config.GetConfigFileUsed(); used != "" {
		hc.Details = []string{used}
		return hc
	}
	hc.Status = statusWarn
	hc.Details = []string{"no siteaudit.yaml found, using built-in defaults"}
	return hc
}

func checkExpectations(cfg *config.Config) HealthCheck {
	hc := HealthCheck{ID: "expectations", Name: "Expectation table", Group: "config", Status: statusPass}
	exp := cfg.Expectations
	if err := exp.Validate(); err != nil {
		hc.Status = statusError
		hc.Details = strings.Split(err.Error(), "\n")
		return hc
	}
	hc.Details = []string{fmt.Sprintf("%d regions, %d zip ranges, %d markers, default region %s",
		len(exp.Regions), len(exp.ZipRanges), len(exp.Markers), exp.DefaultRegion)}
	return hc
}

func checkNavTemplate(cfg *config.Config) HealthCheck {
	hc := HealthCheck{ID: "nav-template", Name: "Navigation template", Group: "repair", Status: statusPass}
	if _, err := navigationFixer(cfg, ""); err != nil {
		hc.Status = statusError
		hc.Details = []string{err.Error()}
		return hc
	}
	if cfg.NavTemplate == "" {
		hc.Details = []string{"using the built-in navigation"}
	} else {
		hc.Details = []string{cfg.NavTemplate}
	}
	return hc
}

func checkBackupDir(dir string) HealthCheck {
	hc := HealthCheck{ID: "backup-dir", Name: "Backup directory", Group: "repair", Status: statusPass}
	if err := checkWritable(dir); err != nil {
		hc.Status = statusError
		hc.Details = []string{err.Error()}
		return hc
	}
	hc.Details = []string{dir}
	return hc
}

// checkWritable creates and removes a temp file in dir, or in its nearest
// existing ancestor when dir does not exist yet.
func checkWritable(dir string) error {
	target := dir
	for {
		info, err := os.Stat(target)
		if err == nil {
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", target)
			}
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		parent := filepath.Dir(target)
		if parent == target {
			return fmt.Errorf("no existing parent for %s", dir)
		}
		target = parent
	}
	f, err := os.CreateTemp(target, ".siteaudit-write-*")
	if err != nil {
		return fmt.Errorf("%s is not writable: %w", target, err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func checkForwardToken(cfg *config.Config) HealthCheck {
	hc := HealthCheck{ID: "forward-token", Name: "CRM forwarding", Group: "webhook", Status: statusPass}
	if cfg.Serve.ForwardURL == "" {
		hc.Details = []string{"leads are logged, not forwarded"}
		return hc
	}
	if os.Getenv(cfg.Serve.TokenEnv) == "" {
		hc.Status = statusWarn
		hc.Details = []string{fmt.Sprintf("%s is not set", cfg.Serve.TokenEnv)}
		return hc
	}
	hc.Details = []string{cfg.Serve.ForwardURL}
	return hc
}

// calculateHealthScore computes a health score from 0-100. Errors cost
// twice as much as warnings.
func calculateHealthScore(checks []HealthCheck) int {
	score := 100
	for _, check := range checks {
		switch check.Status {
		case statusError:
			score -= 25
		case statusWarn:
			score -= 10
		}
	}
	return max(score, 0)
}

func generateRecommendations(checks []HealthCheck) []string {
	recommendations := []string{}
	for _, check := range checks {
		if check.Status == statusPass {
			continue
		}
		if rec := getRecommendation(check.ID); rec != "" {
			recommendations = append(recommendations, rec)
		}
	}
	return recommendations
}

func getRecommendation(id string) string {
	switch id {
	case "root":
		return "Point --root or 'root' in siteaudit.yaml at the built site"
	case "config":
		return "Run 'siteaudit init' to write a siteaudit.yaml you can tune"
	case "expectations":
		return "Fix the expectation table in siteaudit.yaml"
	case "nav-template":
		return "Make the navigation template a single <nav> with the canonical class"
	case "backup-dir":
		return "Choose a writable backup_dir so repairs can be rolled back"
	case "forward-token":
		return "Export the CRM token named by serve.token_env before 'siteaudit serve'"
	default:
		return ""
	}
}

func statusLabel(status string) string {
	switch status {
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "PASS"
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("siteaudit Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.Render("✓")
		switch check.Status {
		case statusWarn:
			icon = styles.Warning.Render("!")
		case statusError:
			icon = styles.StatusFailed.Render("✗")
		}
		r.Printf("   %s %s\n", icon, check.Name)
		for _, detail := range check.Details {
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println(styles.Header2.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}
	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# siteaudit Health Report")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("## " + titleCaser.String(currentGroup))
			r.Println("")
		}
		r.Printf("- **[%s]** %s\n", statusLabel(check.Status), check.Name)
		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}
	return nil
}
