package score

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/siteaudit/internal/testutil"
	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/extract"
)

func TestMarkers(t *testing.T) {
	exp := core.DefaultExpectations()
	opts := extract.OptionsFrom(exp)

	tests := []struct {
		name     string
		doc      string
		want     int
		wantPass bool
	}{
		{"empty page", `<p>hello</p>`, 0, false},
		{
			"all markers",
			`<title>x</title><meta name="description"><meta name="viewport"><img loading="lazy"><div class="authority-reversal"></div>`,
			100, true,
		},
		{
			"four of five",
			`<title>x</title><meta name="description"><meta name="viewport">Ask a funeral director`,
			80, true,
		},
		{"three of five", `<title>x</title><meta name="description"><meta name="viewport">`, 60, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Markers(extract.Extract([]byte(tt.doc), opts), exp.Markers)
			assert.Equal(t, tt.want, s.Percent)
			assert.Equal(t, 100, s.Max)
			assert.Equal(t, tt.wantPass, s.Passes(exp.PassThreshold))
		})
	}
}

func TestMarkers_RepeatedPatternCountsOnce(t *testing.T) {
	specs := []core.MarkerSpec{{Kind: "title", Weight: 20, Patterns: []string{"<title>"}}}
	facts := extract.Extract([]byte(`<title>a</title><title>b</title>`), extract.Options{Markers: specs})
	assert.Equal(t, 20, Markers(facts, specs).Points)
}

func TestBuildSystem(t *testing.T) {
	artifacts := core.DefaultExpectations().BuildArtifacts

	root := testutil.WriteSite(t, map[string]string{
		"package.json": "{}",
		"netlify.toml": "",
		"public/":      "",
	})
	s := BuildSystem(root, artifacts)
	assert.Equal(t, 75, s.Percent)
	assert.True(t, s.Passes(75))

	assert.Equal(t, 0, BuildSystem(t.TempDir(), artifacts).Percent)
	assert.Equal(t, 100, BuildSystem(t.TempDir(), nil).Percent)
}
