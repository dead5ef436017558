package search

import (
	"strings"
	"unicode"
)

// NormalizeReferences splits a multi-line block into trimmed, non-blank
// references. Order and duplicates are kept.
func NormalizeReferences(raw string) []string {
	lines := strings.Split(raw, "\n")
	refs := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		refs = append(refs, line)
	}
	return refs
}

// NormalizeKeywords splits raw keyword input on commas (ASCII, full-width
// and ideographic) and whitespace. Order and duplicates are kept.
func NormalizeKeywords(raw string) []string {
	return strings.FieldsFunc(raw, isKeywordSeparator)
}

func isKeywordSeparator(r rune) bool {
	switch r {
	case ',', '，', '、':
		return true
	}
	return unicode.IsSpace(r)
}
