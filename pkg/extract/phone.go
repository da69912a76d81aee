package extract

import (
	"bytes"
	"regexp"

	"github.com/leapstack-labs/siteaudit/pkg/core"
)

// phonePattern matches a ten-digit number with an optional +1 or 1
// country code. Group 1 is the national part.
var phonePattern = regexp.MustCompile(`(?:\+?1[\s.-]?)?(\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4})`)

// PhoneOccurrence is one phone-shaped substring of a document. A country
// code prefix is matched but left out of Raw and Offset.
type PhoneOccurrence struct {
	Raw    string `json:"raw"`
	Digits string `json:"digits"`
	Offset int    `json:"offset"` // byte offset of Raw in the document
	Line   int    `json:"line"`   // 1-based
}

// End returns the byte offset just past the occurrence.
func (p PhoneOccurrence) End() int { return p.Offset + len(p.Raw) }

// Phones returns every phone occurrence in document order. Matches that
// touch a longer digit run, or that do not normalise to exactly ten digits,
// are dropped.
func Phones(content []byte) []PhoneOccurrence {
	matches := phonePattern.FindAllSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return nil
	}

	out := make([]PhoneOccurrence, 0, len(matches))
	line, lineAt := 1, 0
	for _, m := range matches {
		// a prefix glued to a longer digit run may still be split off by a separator
		if m[0] > 0 && isDigit(content[m[0]-1]) && isDigit(content[m[2]-1]) {
			continue
		}
		if m[1] < len(content) && isDigit(content[m[1]]) {
			continue
		}
		start, end := m[2], m[3]
		raw := string(content[start:end])
		digits := core.NormalizeDigits(raw)
		if !core.IsPhoneDigits(digits) {
			continue
		}
		line += bytes.Count(content[lineAt:start], []byte{'\n'})
		lineAt = start
		out = append(out, PhoneOccurrence{Raw: raw, Digits: digits, Offset: start, Line: line})
	}
	return out
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
