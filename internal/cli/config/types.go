// Package config provides configuration management for the siteaudit CLI.
//
// The site expectation table lives in pkg/core; this package layers the
// CLI-specific settings around it and loads both from defaults, the
// siteaudit.yaml file, SITEAUDIT_* environment variables and flags.
package config

import (
	"time"

	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/walker"
)

// Config holds all CLI configuration options.
type Config struct {
	Root         string            `koanf:"root" yaml:"root"`
	OutputFormat string            `koanf:"output" yaml:"output"`
	Verbose      bool              `koanf:"verbose" yaml:"verbose,omitempty"`
	LogLevel     string            `koanf:"log_level" yaml:"log_level,omitempty"`
	Workers      int               `koanf:"workers" yaml:"workers"`
	Extensions   []string          `koanf:"extensions" yaml:"extensions"`
	Exclude      []string          `koanf:"exclude" yaml:"exclude"`
	BackupDir    string            `koanf:"backup_dir" yaml:"backup_dir"`
	NavTemplate  string            `koanf:"nav_template" yaml:"nav_template,omitempty"`
	ReportFile   string            `koanf:"report_file" yaml:"report_file,omitempty"`
	SiteURL      string            `koanf:"site_url" yaml:"site_url,omitempty"`
	Lint         LintConfig        `koanf:"lint" yaml:"lint"`
	Expectations core.Expectations `koanf:"expectations" yaml:"expectations"`
	Serve        ServeConfig       `koanf:"serve" yaml:"serve"`
	Watch        WatchConfig       `koanf:"watch" yaml:"watch"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-" yaml:"-"`
}

// LintConfig selects and re-weights rules.
type LintConfig struct {
	Disabled []string          `koanf:"disabled" yaml:"disabled,omitempty"`
	Severity map[string]string `koanf:"severity" yaml:"severity,omitempty"`
}

// ServeConfig configures the lead capture server.
type ServeConfig struct {
	Addr         string        `koanf:"addr" yaml:"addr"`
	ForwardURL   string        `koanf:"forward_url" yaml:"forward_url,omitempty"`
	TokenEnv     string        `koanf:"token_env" yaml:"token_env,omitempty"`
	ReadTimeout  time.Duration `koanf:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout" yaml:"write_timeout"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce" yaml:"debounce"`
}

// Default configuration values.
const (
	DefaultRoot         = "."
	DefaultOutput       = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultWorkers      = 1
	DefaultBackupDir    = "backups"
	DefaultAddr         = ":8080"
	DefaultTokenEnv     = "SITEAUDIT_FORWARD_TOKEN"
	DefaultDebounce     = 500 * time.Millisecond
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 10 * time.Second
)

// DefaultExtensions are the file suffixes audited by default.
var DefaultExtensions = []string{".html"}

// Default returns a Config populated with default values and the built-in
// expectation table.
func Default() *Config {
	return &Config{
		Root:         DefaultRoot,
		OutputFormat: DefaultOutput,
		Workers:      DefaultWorkers,
		Extensions:   append([]string(nil), DefaultExtensions...),
		Exclude:      append([]string(nil), walker.DefaultExclude...),
		BackupDir:    DefaultBackupDir,
		Expectations: core.DefaultExpectations(),
		Serve: ServeConfig{
			Addr:         DefaultAddr,
			TokenEnv:     DefaultTokenEnv,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
		},
		Watch: WatchConfig{Debounce: DefaultDebounce},
	}
}
