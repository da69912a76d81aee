package repair

import (
	"bytes"
	"fmt"

	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/extract"
	"github.com/leapstack-labs/siteaudit/pkg/region"
)

// PhoneFixer rewrites wrong phone numbers in place, keeping each
// occurrence's original separators and parentheses.
type PhoneFixer struct {
	corrections map[string]string
	resolver    *region.Resolver
	regional    bool
}

// NewPhoneFixer builds a fixer from a wrong -> right digits table. With
// regional set, every occurrence on a page with a resolved region is also
// rewritten to that region's canonical phone.
func NewPhoneFixer(corrections map[string]string, resolver *region.Resolver, regional bool) (*PhoneFixer, error) {
	table := make(map[string]string, len(corrections))
	for wrong, right := range corrections {
		w, r := core.NormalizeDigits(wrong), core.NormalizeDigits(right)
		if !core.IsPhoneDigits(w) || !core.IsPhoneDigits(r) {
			return nil, fmt.Errorf("phone correction %q -> %q must map 10 digits to 10 digits", wrong, right)
		}
		table[w] = r
	}
	for wrong, right := range table {
		if _, chained := table[right]; chained {
			return nil, fmt.Errorf("phone correction %s -> %s chains into another correction", wrong, right)
		}
	}
	if regional && resolver == nil {
		return nil, fmt.Errorf("regional phone rewrite needs a region resolver")
	}
	return &PhoneFixer{corrections: table, resolver: resolver, regional: regional}, nil
}

// Name implements Strategy.
func (f *PhoneFixer) Name() string { return "phone" }

// Apply implements Strategy.
func (f *PhoneFixer) Apply(content []byte, r region.Region) ([]byte, []string, error) {
	phones := extract.Phones(content)
	if len(phones) == 0 {
		return content, nil, nil
	}

	canonical := ""
	if f.regional && r.IsKnown() {
		canonical, _ = f.resolver.Phone(r)
	}

	var (
		out     bytes.Buffer
		details []string
		pos     int
	)
	for _, p := range phones {
		target := f.target(p.Digits, canonical)
		if target == "" || target == p.Digits {
			continue
		}
		fixed := substituteDigits(p.Raw, target)
		out.Write(content[pos:p.Offset])
		out.WriteString(fixed)
		pos = p.End()
		details = append(details, fmt.Sprintf("line %d: %s -> %s", p.Line, p.Raw, fixed))
	}
	if len(details) == 0 {
		return content, nil, nil
	}
	out.Write(content[pos:])
	return out.Bytes(), details, nil
}

func (f *PhoneFixer) target(digits, canonical string) string {
	if canonical != "" {
		return canonical
	}
	return f.corrections[digits]
}

// substituteDigits replaces the digits of raw, in order, with digits.
func substituteDigits(raw, digits string) string {
	b := []byte(raw)
	j := 0
	for i := range b {
		if b[i] >= '0' && b[i] <= '9' && j < len(digits) {
			b[i] = digits[j]
			j++
		}
	}
	return string(b)
}
