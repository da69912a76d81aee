package repair

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/leapstack-labs/siteaudit/pkg/extract"
	"github.com/leapstack-labs/siteaudit/pkg/region"
)

// ErrNoBody is returned when a document has no <body> start tag.
var ErrNoBody = errors.New("document has no <body>")

//go:embed canonical_nav.html
var defaultNavigation string

// DefaultNavigation returns the built-in canonical navigation fragment.
func DefaultNavigation() string { return strings.TrimSpace(defaultNavigation) }

// NavigationFixer replaces every navigation container with one canonical
// block placed directly after <body>.
type NavigationFixer struct {
	fragment string
	query    extract.NavQuery
	legacy   []*regexp.Regexp
}

// NewNavigationFixer validates the canonical fragment. It must be exactly
// one <nav> element carrying the canonical class, and no legacy fragment
// may occur inside it.
func NewNavigationFixer(fragment string, q extract.NavQuery, legacy []string) (*NavigationFixer, error) {
	fragment = strings.TrimSpace(fragment)
	if err := validateFragment(fragment, q); err != nil {
		return nil, err
	}

	var cleaned []*regexp.Regexp
	for _, l := range legacy {
		if l == "" {
			continue
		}
		re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(l))
		if re.MatchString(fragment) {
			return nil, fmt.Errorf("legacy fragment %q occurs in the canonical navigation", l)
		}
		cleaned = append(cleaned, re)
	}
	return &NavigationFixer{fragment: fragment, query: q, legacy: cleaned}, nil
}

func validateFragment(fragment string, q extract.NavQuery) error {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return fmt.Errorf("parse canonical navigation: %w", err)
	}
	navs := 0
	for _, n := range nodes {
		navs += countNav(n)
	}
	if navs != 1 {
		return fmt.Errorf("canonical navigation must contain exactly one <nav>, found %d", navs)
	}

	blocks := extract.Navigation([]byte(fragment), q)
	if len(blocks) != 1 || !blocks[0].Canonical || blocks[0].Span.Start != 0 || blocks[0].Span.End != len(fragment) {
		return fmt.Errorf("canonical navigation must be a single <nav class=%q> element", q.CanonicalClass)
	}
	return nil
}

func countNav(n *html.Node) int {
	c := 0
	if n.Type == html.ElementNode && n.DataAtom == atom.Nav {
		c++
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c += countNav(child)
	}
	return c
}

// Name implements Strategy.
func (f *NavigationFixer) Name() string { return "navigation" }

// Fragment returns the canonical navigation markup.
func (f *NavigationFixer) Fragment() string { return f.fragment }

// Apply implements Strategy.
func (f *NavigationFixer) Apply(content []byte, _ region.Region) ([]byte, []string, error) {
	bodyEnd, ok := extract.HasBody(content)
	if !ok {
		return content, nil, ErrNoBody
	}

	blocks := extract.Navigation(content, f.query)
	cuts := make([]extract.Span, 0, len(blocks))
	for _, b := range blocks {
		if b.Span.Start < bodyEnd && b.Span.End > bodyEnd {
			return content, nil, fmt.Errorf("%w: navigation block at offset %d encloses <body>", ErrNoBody, b.Span.Start)
		}
		cuts = append(cuts, b.Span)
	}
	// the zero-width span keeps legacy matches from straddling the body tag
	legacy := f.legacySpans(content, append(slices.Clip(cuts), extract.Span{Start: bodyEnd, End: bodyEnd}))

	if len(legacy) == 0 && f.isCanonical(content, bodyEnd, blocks) {
		return content, nil, nil
	}

	var details []string
	if len(blocks) > 0 {
		details = append(details, fmt.Sprintf("removed %d navigation block(s)", len(blocks)))
	}
	if len(legacy) > 0 {
		details = append(details, fmt.Sprintf("removed %d legacy fragment(s)", len(legacy)))
	}
	details = append(details, "inserted canonical navigation")

	cuts = append(cuts, legacy...)
	sort.Slice(cuts, func(i, j int) bool { return cuts[i].Start < cuts[j].Start })

	var out bytes.Buffer
	out.Grow(len(content) + len(f.fragment) + 1)
	pos := 0
	inserted := false
	insert := func(at int) {
		if inserted || at < bodyEnd {
			return
		}
		out.Write(content[pos:bodyEnd])
		out.WriteByte('\n')
		out.WriteString(f.fragment)
		pos = bodyEnd
		inserted = true
	}
	for _, c := range cuts {
		insert(c.Start)
		if c.Start < pos {
			continue
		}
		out.Write(content[pos:c.Start])
		pos = c.End
	}
	insert(len(content))
	out.Write(content[pos:])
	return out.Bytes(), details, nil
}

// isCanonical reports whether the only navigation block is the canonical
// fragment separated from <body> by whitespace alone.
func (f *NavigationFixer) isCanonical(content []byte, bodyEnd int, blocks []extract.NavBlock) bool {
	if len(blocks) != 1 || blocks[0].Raw != f.fragment {
		return false
	}
	start := blocks[0].Span.Start
	return start >= bodyEnd && len(bytes.TrimSpace(content[bodyEnd:start])) == 0
}

// legacySpans finds stray legacy fragments outside the given spans.
// Offsets index content itself; matching is case-insensitive.
func (f *NavigationFixer) legacySpans(content []byte, exclude []extract.Span) []extract.Span {
	var spans []extract.Span
	for _, re := range f.legacy {
		for _, m := range re.FindAllIndex(content, -1) {
			s := extract.Span{Start: m[0], End: m[1]}
			if !overlaps(s, exclude) && !overlaps(s, spans) {
				spans = append(spans, s)
			}
		}
	}
	return spans
}

func overlaps(s extract.Span, spans []extract.Span) bool {
	for _, o := range spans {
		if s.Start < o.End && o.Start < s.End {
			return true
		}
	}
	return false
}
