package search

import (
	"strings"

	"golang.org/x/text/cases"
)

// Match pairs a caption entry with the keywords found in its text.
type Match struct {
	Entry           CaptionEntry
	MatchedKeywords []string
}

// Matcher performs case-insensitive substring matching. The zero value is
// not usable; call NewMatcher.
type Matcher struct {
	keywords []string
	folded   []string
}

func NewMatcher(keywords []string) *Matcher {
	m := &Matcher{
		keywords: keywords,
		folded:   make([]string, len(keywords)),
	}
	for i, k := range keywords {
		m.folded[i] = fold(k)
	}
	return m
}

// Match returns every entry whose text contains at least one keyword.
// MatchedKeywords follows keyword input order.
func (m *Matcher) Match(entries []CaptionEntry) []Match {
	var out []Match
	for _, e := range entries {
		text := fold(e.Text)
		var hit []string
		for i, k := range m.folded {
			if k != "" && strings.Contains(text, k) {
				hit = append(hit, m.keywords[i])
			}
		}
		if len(hit) > 0 {
			out = append(out, Match{Entry: e, MatchedKeywords: hit})
		}
	}
	return out
}

// MatchEntries is a convenience wrapper around NewMatcher(keywords).Match.
func MatchEntries(entries []CaptionEntry, keywords []string) []Match {
	return NewMatcher(keywords).Match(entries)
}

// cases.Caser is stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
