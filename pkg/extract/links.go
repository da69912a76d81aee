package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Links returns the href of every anchor, in document order.
func Links(content []byte) []string {
	var out []string
	z := html.NewTokenizer(bytes.NewReader(content))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return out
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := z.TagName()
		if string(name) != "a" || !hasAttr {
			continue
		}
		for {
			key, val, more := z.TagAttr()
			if string(key) == "href" {
				if href := strings.TrimSpace(string(val)); href != "" {
					out = append(out, href)
				}
				break
			}
			if !more {
				break
			}
		}
	}
}

// HasBody reports whether the document has a <body> start tag, returning
// the byte offset just past it.
func HasBody(content []byte) (int, bool) {
	offset := 0
	z := html.NewTokenizer(bytes.NewReader(content))
	for {
		tt := z.Next()
		offset += len(z.Raw())
		switch tt {
		case html.ErrorToken:
			return 0, false
		case html.StartTagToken:
			if name, _ := z.TagName(); string(name) == "body" {
				return offset, true
			}
		}
	}
}
