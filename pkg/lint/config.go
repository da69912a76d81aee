package lint

import "github.com/leapstack-labs/siteaudit/pkg/core"

// Config controls which rules are enabled and their severity.
type Config struct {
	// DisabledRules contains rule IDs to skip
	DisabledRules map[string]bool

	// OnlyRules, when non-empty, restricts evaluation to these rule IDs
	OnlyRules map[string]bool

	// Categories, when non-empty, restricts evaluation to these categories
	Categories map[core.Category]bool

	// SeverityOverrides changes the default severity of rules
	SeverityOverrides map[string]core.Severity
}

// NewConfig creates a default configuration with all rules enabled.
func NewConfig() *Config {
	return &Config{
		DisabledRules:     make(map[string]bool),
		OnlyRules:         make(map[string]bool),
		Categories:        make(map[core.Category]bool),
		SeverityOverrides: make(map[string]core.Severity),
	}
}

// IsDisabled returns true if the rule should be skipped.
func (c *Config) IsDisabled(ruleID string) bool {
	if c == nil {
		return false
	}
	if c.DisabledRules[ruleID] {
		return true
	}
	return len(c.OnlyRules) > 0 && !c.OnlyRules[ruleID]
}

// Allows reports whether a rule with the given ID and category should run.
func (c *Config) Allows(ruleID string, category core.Category) bool {
	if c.IsDisabled(ruleID) {
		return false
	}
	if c == nil || len(c.Categories) == 0 {
		return true
	}
	return c.Categories[category]
}

// GetSeverity returns the severity for a rule, applying any override.
func (c *Config) GetSeverity(ruleID string, defaultSeverity core.Severity) core.Severity {
	if c != nil {
		if sev, ok := c.SeverityOverrides[ruleID]; ok {
			return sev
		}
	}
	return defaultSeverity
}

// Disable disables a rule by ID.
func (c *Config) Disable(ruleID string) *Config {
	c.DisabledRules[ruleID] = true
	return c
}

// Only restricts evaluation to the given rule ID. May be called repeatedly.
func (c *Config) Only(ruleID string) *Config {
	c.OnlyRules[ruleID] = true
	return c
}

// Category restricts evaluation to the given category. May be called repeatedly.
func (c *Config) Category(category core.Category) *Config {
	c.Categories[category] = true
	return c
}

// SetSeverity overrides the severity for a rule.
func (c *Config) SetSeverity(ruleID string, severity core.Severity) *Config {
	c.SeverityOverrides[ruleID] = severity
	return c
}
