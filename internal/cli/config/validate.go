package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/leapstack-labs/siteaudit/internal/cli/output"
	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/lint"
)

// Validate checks if the configuration is valid. All problems are reported.
func (c *Config) Validate() error {
	var errs []error
	if c.Root == "" {
		errs = append(errs, errors.New("root is required"))
	}
	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if len(c.Extensions) == 0 {
		errs = append(errs, errors.New("at least one extension is required"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	for id, sev := range c.Lint.Severity {
		if _, ok := core.ParseSeverity(sev); !ok {
			errs = append(errs, fmt.Errorf("lint.severity.%s: unknown severity %q", id, sev))
		}
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce))
	}
	if err := c.Expectations.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ValidateRoot checks that the scan root exists.
func (c *Config) ValidateRoot() error {
	info, err := os.Stat(c.Root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("site root does not exist: %s\nHint: run from the site directory or use --root", c.Root)
	}
	return nil
}

// SlogLevel returns the configured log level. Verbose implies debug unless
// log_level says otherwise.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "":
		if c.Verbose {
			return slog.LevelDebug, nil
		}
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log_level %q", c.LogLevel)
}

// LintConfig builds the rule selection from the lint section.
func (c *Config) LintConfig() *lint.Config {
	lc := lint.NewConfig()
	for _, id := range c.Lint.Disabled {
		lc.Disable(strings.ToUpper(strings.TrimSpace(id)))
	}
	for id, name := range c.Lint.Severity {
		if sev, ok := core.ParseSeverity(name); ok {
			lc.SetSeverity(strings.ToUpper(id), sev)
		}
	}
	return lc
}
