package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// NavQuery says which elements count as navigation containers.
type NavQuery struct {
	Classes        []string // class names that mark a div/ul/header as navigation
	CanonicalClass string   // class carried by the canonical <nav>
}

// Span is a half-open byte range [Start, End).
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the span length in bytes.
func (s Span) Len() int { return s.End - s.Start }

// NavBlock is one outermost navigation container.
type NavBlock struct {
	Raw       string `json:"-"`
	Span      Span   `json:"span"`
	Tag       string `json:"tag"`
	Canonical bool   `json:"canonical"`
}

var containerTags = map[string]bool{"div": true, "ul": true, "header": true}

// Navigation locates every navigation container using the HTML tokenizer.
// Nested containers are reported once, as the outermost span. Script and
// style bodies and comments never produce blocks.
func Navigation(content []byte, q NavQuery) []NavBlock {
	classes := make(map[string]bool, len(q.Classes))
	for _, c := range q.Classes {
		classes[strings.ToLower(c)] = true
	}
	canonical := strings.ToLower(q.CanonicalClass)

	var (
		blocks []NavBlock
		open   *NavBlock
		depth  int
		offset int
	)

	z := html.NewTokenizer(bytes.NewReader(content))
	for {
		tt := z.Next()
		start := offset
		offset += len(z.Raw())

		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.EndTagToken {
			continue
		}

		name, hasAttr := z.TagName()
		tag := string(name)

		if open != nil {
			if tag != open.Tag {
				continue
			}
			if tt == html.StartTagToken {
				depth++
				continue
			}
			depth--
			if depth == 0 {
				open.Span.End = offset
				open.Raw = string(content[open.Span.Start:offset])
				blocks = append(blocks, *open)
				open = nil
			}
			continue
		}

		if tt != html.StartTagToken {
			continue
		}
		if tag != "nav" && !containerTags[tag] {
			continue
		}

		var classList []string
		if hasAttr {
			classList = classAttr(z)
		}
		isNav := tag == "nav"
		isCanonical := false
		for _, c := range classList {
			if classes[c] {
				isNav = true
			}
			if tag == "nav" && canonical != "" && c == canonical {
				isCanonical = true
			}
		}
		if !isNav {
			continue
		}
		open = &NavBlock{Span: Span{Start: start}, Tag: tag, Canonical: isCanonical}
		depth = 1
	}

	// unterminated container runs to end of document
	if open != nil {
		open.Span.End = len(content)
		open.Raw = string(content[open.Span.Start:])
		blocks = append(blocks, *open)
	}
	return blocks
}

func classAttr(z *html.Tokenizer) []string {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "class" {
			return strings.Fields(strings.ToLower(string(val)))
		}
		if !more {
			return nil
		}
	}
}
