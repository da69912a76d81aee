// Package sitemap builds an XML sitemap from the index pages of a site and
// takes an inventory of the links those pages carry.
package sitemap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/url"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/leapstack-labs/siteaudit/pkg/extract"
	"github.com/leapstack-labs/siteaudit/pkg/walker"
)

// Namespace is the sitemap protocol namespace.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// IndexFile names the page that makes a directory a sitemap entry.
const IndexFile = "index.html"

// Priorities assigned to the site root and every other page.
const (
	RootPriority = "1.0"
	PagePriority = "0.8"
)

// URLSet is the <urlset> document.
type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// URL is one <url> entry.
type URL struct {
	Loc      string `xml:"loc" json:"loc"`
	LastMod  string `xml:"lastmod" json:"lastmod"`
	Priority string `xml:"priority" json:"priority"`
}

// LinkStats summarises the href inventory of every scanned page.
type LinkStats struct {
	Total    int      `json:"total"`
	Internal int      `json:"internal"`
	External int      `json:"external"`
	Other    int      `json:"other"`
	Missing  []string `json:"missing,omitempty"` // root-relative targets with no page
}

// Result is a built sitemap plus the link inventory.
type Result struct {
	Set   URLSet
	Pages int // files scanned
	Links LinkStats
}

// Build scans every file the walker yields. Directories holding an
// index.html become sitemap entries under baseURL; all pages contribute to
// the link inventory. Unreadable files are skipped.
func Build(w *walker.Walker, baseURL string, now time.Time) (*Result, error) {
	base, err := normalizeBase(baseURL)
	if err != nil {
		return nil, err
	}

	res := &Result{Set: URLSet{Xmlns: Namespace}}
	known := make(map[string]bool)
	var internal []string
	lastmod := now.UTC().Format(time.RFC3339)

	for p := range w.Paths() {
		rec, err := w.Read(p)
		if err != nil {
			continue
		}
		res.Pages++
		known["/"+rec.RelPath] = true

		if path.Base(rec.RelPath) == IndexFile {
			dir := path.Dir(rec.RelPath)
			loc, priority := base+"/", RootPriority
			if dir != "." {
				loc, priority = base+"/"+dir+"/", PagePriority
			}
			res.Set.URLs = append(res.Set.URLs, URL{Loc: loc, LastMod: lastmod, Priority: priority})
		}

		for _, href := range extract.Links(rec.Content) {
			res.Links.Total++
			switch classify(href) {
			case linkInternal:
				res.Links.Internal++
				if strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//") {
					internal = append(internal, href)
				}
			case linkExternal:
				res.Links.External++
			default:
				res.Links.Other++
			}
		}
	}

	slices.SortFunc(res.Set.URLs, func(a, b URL) int { return strings.Compare(a.Loc, b.Loc) })
	res.Links.Missing = missingTargets(internal, known)
	return res, nil
}

// Encode renders the sitemap document with an XML declaration.
func (s URLSet) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func normalizeBase(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("base URL %q must be an absolute http(s) URL", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

type linkKind int

const (
	linkOther linkKind = iota
	linkInternal
	linkExternal
)

func classify(href string) linkKind {
	lower := strings.ToLower(href)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"), strings.HasPrefix(lower, "//"):
		return linkExternal
	case strings.HasPrefix(lower, "/"), strings.HasPrefix(lower, "./"), strings.HasPrefix(lower, "../"):
		return linkInternal
	default:
		return linkOther
	}
}

// missingTargets returns the distinct root-relative links that resolve to no
// scanned page. A directory link resolves through its index.html.
func missingTargets(links []string, known map[string]bool) []string {
	seen := make(map[string]bool)
	var out []string
	for _, href := range links {
		target := href
		if i := strings.IndexAny(target, "?#"); i >= 0 {
			target = target[:i]
		}
		if target == "" || seen[target] {
			continue
		}
		seen[target] = true

		clean := path.Clean(target)
		candidates := []string{clean, path.Join(clean, IndexFile)}
		if strings.HasSuffix(target, "/") {
			candidates = candidates[1:]
		}
		if path.Ext(clean) != "" && path.Ext(clean) != ".html" {
			// assets are not pages
			continue
		}
		found := false
		for _, c := range candidates {
			if known[c] {
				found = true
				break
			}
		}
		if !found {
			out = append(out, target)
		}
	}
	slices.Sort(out)
	return out
}
