package core

import "strings"

// Category groups rules and violations for reporting.
type Category string

// Known categories. The set is closed; reports always list all of them.
const (
	CategoryPhone       Category = "phone"
	CategoryMarkers     Category = "markers"
	CategoryNavigation  Category = "navigation"
	CategoryBuildSystem Category = "build-system"
)

// Categories returns every category in report order.
func Categories() []Category {
	return []Category{CategoryPhone, CategoryMarkers, CategoryNavigation, CategoryBuildSystem}
}

// ParseCategory converts a string to a Category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories() {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// FileRecord is a single file read from the site tree.
// Records are immutable once created and are not persisted.
type FileRecord struct {
	Path      string // Path as yielded by the walker
	RelPath   string // Path relative to the scan root, slash separated
	Content   []byte
	SizeBytes int64
}

// Text returns the file content as a string.
func (f *FileRecord) Text() string {
	return string(f.Content)
}

// Violation is a recorded mismatch between an extracted fact and its
// expected value. It references exactly one file and one rule.
type Violation struct {
	File     string   `json:"file"`
	RuleID   string   `json:"rule_id"`
	Category Category `json:"category"`
	Region   string   `json:"region,omitempty"`
	Found    string   `json:"found,omitempty"`
	Expected string   `json:"expected,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Line     int      `json:"line,omitempty"`
}

// NormalizeDigits strips every non-digit character from s.
func NormalizeDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsPhoneDigits reports whether s is exactly ten ASCII digits.
func IsPhoneDigits(s string) bool {
	if len(s) != 10 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
