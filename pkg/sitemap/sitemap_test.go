package sitemap

import (
	"encoding/xml"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/siteaudit/internal/testutil"
	"github.com/leapstack-labs/siteaudit/pkg/walker"
)

var fixedNow = time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)

func build(t *testing.T, files map[string]string, base string) *Result {
	t.Helper()
	root := testutil.WriteSite(t, files)
	w, err := walker.New(root, walker.Options{Extensions: []string{".html"}, Exclude: walker.DefaultExclude})
	require.NoError(t, err)
	res, err := Build(w, base, fixedNow)
	require.NoError(t, err)
	return res
}

func TestBuild_IndexPages(t *testing.T) {
	res := build(t, map[string]string{
		"index.html":                     `<a href="/services/">Services</a>`,
		"services/index.html":            `<a href="/">Home</a>`,
		"services/water-damage.html":     ``,
		"washington-dc/index.html":       ``,
		"backups/old/index.html":         ``,
		"washington-dc/notes/index.html": ``,
	}, "https://example.com/")

	want := []URL{
		{Loc: "https://example.com/", LastMod: "2025-04-02T09:30:00Z", Priority: "1.0"},
		{Loc: "https://example.com/services/", LastMod: "2025-04-02T09:30:00Z", Priority: "0.8"},
		{Loc: "https://example.com/washington-dc/", LastMod: "2025-04-02T09:30:00Z", Priority: "0.8"},
		{Loc: "https://example.com/washington-dc/notes/", LastMod: "2025-04-02T09:30:00Z", Priority: "0.8"},
	}
	if diff := cmp.Diff(want, res.Set.URLs); diff != "" {
		t.Errorf("urls mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 5, res.Pages)
	assert.Equal(t, Namespace, res.Set.Xmlns)
}

func TestBuild_LinkInventory(t *testing.T) {
	res := build(t, map[string]string{
		"index.html": `
			<a href="/about/">About</a>
			<a href="/contact.html#form">Contact</a>
			<a href="/missing/">Gone</a>
			<a href="/missing/?ref=nav">Gone again</a>
			<a href="/styles/site.css">css</a>
			<a href="./local.html">local</a>
			<a href="https://maps.example.com">Map</a>
			<a href="//cdn.example.com/x">cdn</a>
			<a href="tel:3012153191">Call</a>
			<a href="#top">Top</a>`,
		"about/index.html": ``,
		"contact.html":     `<a href="/nowhere.html">x</a>`,
	}, "https://example.com")

	assert.Equal(t, LinkStats{
		Total:    11,
		Internal: 7,
		External: 2,
		Other:    2,
		Missing:  []string{"/missing/", "/nowhere.html"},
	}, res.Links)
}

func TestBuild_InvalidBase(t *testing.T) {
	root := testutil.WriteSite(t, map[string]string{"index.html": ""})
	w, err := walker.New(root, walker.Options{Extensions: []string{".html"}})
	require.NoError(t, err)

	for _, base := range []string{"", "example.com", "ftp://example.com", "/relative"} {
		_, err := Build(w, base, fixedNow)
		assert.Error(t, err, base)
	}
}

func TestEncode(t *testing.T) {
	set := URLSet{Xmlns: Namespace, URLs: []URL{
		{Loc: "https://example.com/", LastMod: "2025-04-02T09:30:00Z", Priority: "1.0"},
	}}
	data, err := set.Encode()
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, s, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	assert.Contains(t, s, "    <loc>https://example.com/</loc>")

	var back URLSet
	require.NoError(t, xml.Unmarshal(data, &back))
	assert.Equal(t, set.URLs, back.URLs)
}
