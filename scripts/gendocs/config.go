package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/siteaudit/internal/cli/config"
)

// ConfigField is one documented configuration key.
type ConfigField struct {
	Key     string
	Type    string
	Default string
	Env     string
}

// generateConfigDocs documents every configuration key with its default
// and environment variable, plus the built-in expectation table.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	def := config.Default()
	fields := collectFields(reflect.ValueOf(*def), "")

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "siteaudit configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("siteaudit reads `siteaudit.yaml` from the working directory or the nearest parent. " +
		"Values are layered: defaults, then the file, then `SITEAUDIT_` environment variables, then flags.")

	w.Header(2, "Settings")
	var rows [][]string
	for _, f := range fields {
		defVal := f.Default
		if defVal == "" {
			defVal = "-"
		} else {
			defVal = InlineCode(defVal)
		}
		rows = append(rows, []string{InlineCode(f.Key), f.Type, defVal, InlineCode(f.Env)})
	}
	w.Table([]string{"Key", "Type", "Default", "Environment"}, rows)

	w.Header(2, "Expectation Table")
	w.Paragraph("The `expectations` key holds regions, path rules, zip ranges, markers and navigation settings. The built-in table is:")
	data, err := yaml.Marshal(map[string]any{"expectations": def.Expectations})
	if err != nil {
		return fmt.Errorf("encode expectations: %w", err)
	}
	w.CodeBlock("yaml", string(data))

	log.Printf("  Generated configuration.md")
	return os.WriteFile(filepath.Join(outDir, "configuration.md"), w.Bytes(), 0600)
}

// collectFields walks the koanf tags of v. Nested structs are flattened
// into dotted keys, except the expectation table which is documented whole.
func collectFields(v reflect.Value, prefix string) []ConfigField {
	var out []ConfigField
	t := v.Type()
	for i := range t.NumField() {
		sf := t.Field(i)
		tag := sf.Tag.Get("koanf")
		if tag == "" || tag == "-" || tag == "expectations" {
			continue
		}
		key := prefix + tag
		fv := v.Field(i)
		if fv.Kind() == reflect.Struct {
			out = append(out, collectFields(fv, key+".")...)
			continue
		}
		out = append(out, ConfigField{
			Key:     key,
			Type:    sf.Type.String(),
			Default: formatDefault(fv),
			Env:     config.EnvVar(key),
		})
	}
	return out
}

func formatDefault(v reflect.Value) string {
	if v.IsZero() {
		return ""
	}
	if v.Kind() == reflect.Slice {
		parts := make([]string, v.Len())
		for i := range v.Len() {
			parts[i] = fmt.Sprint(v.Index(i).Interface())
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v.Interface())
}
