package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/siteaudit/internal/cli/config"
	"github.com/leapstack-labs/siteaudit/pkg/repair"
	"github.com/spf13/cobra"
)

const configHeader = `# siteaudit configuration.
# Every key can also be set with a SITEAUDIT_ environment variable
# (nested keys joined by "__", e.g. SITEAUDIT_SERVE__ADDR) or a flag.
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a default siteaudit.yaml",
		Long: `Write a siteaudit.yaml holding the default settings and the built-in
expectation table: regions with their canonical phones, path rules, zip
ranges, content markers and navigation settings. Edit it to match your site.`,
		Example: `  # Initialize in current directory
  siteaudit init

  # Initialize in another directory
  siteaudit init ./site

  # Force overwrite existing config
  siteaudit init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			r, err := newRenderer(cmd, "")
			if err != nil {
				return err
			}
			path, err := runInit(dir, force)
			if err != nil {
				return err
			}
			r.Success("Created " + path)
			r.Println("")
			r.Println("Next steps:")
			r.Println("  1. Adjust regions, phones and markers in siteaudit.yaml")
			r.Println("  2. Run 'siteaudit doctor' to check the setup")
			r.Println("  3. Run 'siteaudit audit' to scan the site")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

// runInit writes the default configuration into dir and returns its path.
func runInit(dir string, force bool) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, config.ConfigFileNames[0])
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists. Use --force to overwrite", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	data, err := defaultConfigYAML()
	if err != nil {
		return "", err
	}
	if err := repair.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func defaultConfigYAML() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(configHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(config.Default()); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
