package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKeywords(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"comma and space", "Python, AI", []string{"Python", "AI"}},
		{"spaces only", "go  rust\tzig", []string{"go", "rust", "zig"}},
		{"full-width comma", "機械学習，Python", []string{"機械学習", "Python"}},
		{"ideographic comma", "機械学習、AI", []string{"機械学習", "AI"}},
		{"ideographic space", "機械学習　AI", []string{"機械学習", "AI"}},
		{"duplicates kept", "ai, AI, ai", []string{"ai", "AI", "ai"}},
		{"empty pieces dropped", ",, ,a,,", []string{"a"}},
		{"blank", "   ", []string{}},
		{"empty", "", []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeKeywords(tc.raw)
			if len(tc.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeReferences(t *testing.T) {
	raw := "https://youtu.be/a\n\n   \n  https://youtu.be/b  \r\nhttps://youtu.be/a\n"
	got := NormalizeReferences(raw)
	assert.Equal(t, []string{"https://youtu.be/a", "https://youtu.be/b", "https://youtu.be/a"}, got)
}

func TestNormalizeReferences_Blank(t *testing.T) {
	assert.Empty(t, NormalizeReferences("\n \n\t\n"))
}
