package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/siteaudit/internal/cli"
	"github.com/leapstack-labs/siteaudit/internal/cli/commands"
	"github.com/leapstack-labs/siteaudit/internal/cli/config"
)

const defaultExitStatus = "0 on success, 1 on any error."

// generateCLIDocs writes the CLI overview and one page per command.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	cmds := documentedCommands(root)

	if err := os.WriteFile(filepath.Join(outDir, "index.md"), renderCLIIndex(root, cmds), 0600); err != nil {
		return err
	}
	log.Printf("  Generated index.md")

	for _, c := range cmds {
		if err := os.WriteFile(filepath.Join(outDir, c.Name()+".md"), renderCommandPage(c), 0600); err != nil {
			return fmt.Errorf("failed to write page for %s: %w", c.Name(), err)
		}
		log.Printf("  Generated %s.md", c.Name())
	}
	return nil
}

func documentedCommands(root *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	for _, c := range root.Commands() {
		if c.Hidden || c.Name() == "help" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func renderCLIIndex(root *cobra.Command, cmds []*cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", root.Short)
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(root.Long)
	w.CodeBlock("bash", "go install github.com/leapstack-labs/siteaudit/cmd/siteaudit@latest")

	w.Header(2, "Commands")
	rows := make([][]string, 0, len(cmds))
	for _, c := range cmds {
		rows = append(rows, []string{fmt.Sprintf("[%s](%s.md)", InlineCode(c.Name()), c.Name()), cleanDescription(c.Short)})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Options")
	w.Paragraph("Global options are loaded into the configuration, so each one can also be set in `siteaudit.yaml` " +
		"under its config key or through its environment variable. " +
		"Precedence, highest first: flag, environment, config file, built-in default.")
	writeGlobalFlags(w, root.PersistentFlags())

	w.Header(2, "Exit Status")
	exitRows := [][]string{{"all", defaultExitStatus}}
	for _, c := range cmds {
		if s, ok := c.Annotations[commands.ExitStatusAnnotation]; ok {
			exitRows = append(exitRows, []string{InlineCode(c.Name()), s})
		}
	}
	w.Table([]string{"Command", "Status"}, exitRows)

	return w.Bytes()
}

// writeGlobalFlags lists persistent flags with the config key and
// environment variable each one overrides.
func writeGlobalFlags(w *MarkdownWriter, flags *pflag.FlagSet) {
	keys := make(map[string]bool)
	for _, f := range collectFields(reflect.ValueOf(*config.Default()), "") {
		keys[f.Key] = true
	}

	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		key, env := "-", "-"
		if k := config.FlagKey(f.Name); keys[k] {
			key, env = InlineCode(k), InlineCode(config.EnvVar(k))
		}
		rows = append(rows, []string{InlineCode("--" + f.Name), shorthand(f), key, env, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Option", "Short", "Config key", "Environment", "Description"}, rows)
}

func renderCommandPage(c *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter(c.Name(), c.Short)
	w.GeneratedMarker()

	w.Header(1, c.CommandPath())
	if c.Long != "" {
		w.Paragraph(c.Long)
	} else {
		w.Paragraph(c.Short)
	}

	w.Header(2, "Usage")
	w.CodeBlock("bash", c.UseLine())

	if c.HasAvailableSubCommands() {
		w.Header(2, "Subcommands")
		var rows [][]string
		for _, sub := range c.Commands() {
			if sub.IsAvailableCommand() {
				rows = append(rows, []string{InlineCode(sub.Name()), cleanDescription(sub.Short)})
			}
		}
		w.Table([]string{"Subcommand", "Description"}, rows)
	}

	if c.HasAvailableLocalFlags() {
		w.Header(2, "Options")
		var rows [][]string
		c.LocalNonPersistentFlags().VisitAll(func(f *pflag.Flag) {
			if !f.Hidden {
				rows = append(rows, []string{InlineCode("--" + f.Name), shorthand(f), flagDefault(f), cleanDescription(f.Usage)})
			}
		})
		w.Table([]string{"Option", "Short", "Default", "Description"}, rows)
	}
	w.Paragraph("Global options are listed in the [CLI reference](index.md#global-options).")

	w.Header(2, "Exit Status")
	status := defaultExitStatus
	if s, ok := c.Annotations[commands.ExitStatusAnnotation]; ok {
		status = s
	}
	w.Paragraph(status)

	if c.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", dedent(c.Example))
	}
	return w.Bytes()
}

func shorthand(f *pflag.Flag) string {
	if f.Shorthand == "" {
		return ""
	}
	return "-" + f.Shorthand
}

// flagDefault hides zero defaults, which mean "use the configured value".
func flagDefault(f *pflag.Flag) string {
	switch f.DefValue {
	case "", "0", "0s", "false", "[]":
		return "-"
	}
	return InlineCode(f.DefValue)
}

// dedent strips the indentation shared by every non-blank line.
func dedent(s string) string {
	lines := strings.Split(strings.Trim(s, "\n"), "\n")
	prefix, found := "", false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if !found || strings.HasPrefix(prefix, indent) {
			prefix, found = indent, true
		}
	}
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.Join(lines, "\n")
}
