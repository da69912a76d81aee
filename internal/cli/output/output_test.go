package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"", ModeAuto},
		{"auto", ModeAuto},
		{"TEXT", ModeText},
		{"md", ModeMarkdown},
		{"markdown", ModeMarkdown},
		{"json", ModeJSON},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseMode("yaml")
	assert.Error(t, err)
}

func TestEffectiveMode(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, ModeText, NewRendererWithTTY(&buf, &buf, ModeAuto, true).EffectiveMode())
	assert.Equal(t, ModeMarkdown, NewRendererWithTTY(&buf, &buf, ModeAuto, false).EffectiveMode())
	assert.Equal(t, ModeJSON, NewRendererWithTTY(&buf, &buf, ModeJSON, true).EffectiveMode())
	assert.Equal(t, ModeMarkdown, NewRenderer(&buf, &buf, "").EffectiveMode())
}

func TestRenderer_NoColorWithoutTTY(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, ModeText, false)

	r.Success("done")
	r.Warning("careful")
	r.Header(1, "Title")

	assert.Equal(t, "✓ done\nTitle\n", out.String())
	assert.Equal(t, "! careful\n", errOut.String())
	assert.NotContains(t, out.String(), "\x1b[")
}

func TestRenderer_Markdown(t *testing.T) {
	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &out, ModeMarkdown, false)

	r.Header(2, "Summary")
	r.Println(FormatKeyValue("Files", "3"))
	r.Table([]string{"Rule", "Count"}, [][]string{{"PH01", "2"}})

	s := out.String()
	assert.Contains(t, s, "## Summary\n")
	assert.Contains(t, s, "- **Files**: 3")
	assert.Contains(t, s, "| PH01")
	assert.Contains(t, s, "| ---")
}

func TestRenderer_JSON(t *testing.T) {
	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &out, ModeJSON, false)
	require.NoError(t, r.JSON(map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", out.String())
}
