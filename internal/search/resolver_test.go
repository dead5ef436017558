package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		wantID string
		wantOK bool
	}{
		{"short link", "https://youtu.be/abc123", "abc123", true},
		{"short link with time", "https://youtu.be/abc123?t=42", "abc123", true},
		{"watch", "https://www.youtube.com/watch?v=X1", "X1", true},
		{"watch without www", "https://youtube.com/watch?v=X1&list=PL1", "X1", true},
		{"watch surrounding spaces", "  https://www.youtube.com/watch?v=X1  ", "X1", true},
		{"watch missing v", "https://www.youtube.com/watch?list=PL1", "", false},
		{"watch empty v", "https://www.youtube.com/watch?v=", "", false},
		{"embed", "https://www.youtube.com/embed/j9YpkSX7NNM", "j9YpkSX7NNM", true},
		{"embed extra path", "https://www.youtube.com/embed/j9YpkSX7NNM/more", "j9YpkSX7NNM", true},
		{"v path", "https://youtube.com/v/j9YpkSX7NNM?version=3", "j9YpkSX7NNM", true},
		{"shorts not recognised", "https://www.youtube.com/shorts/j9YpkSX7NNM", "", false},
		{"mobile host not recognised", "https://m.youtube.com/watch?v=X1", "", false},
		{"other host", "https://vimeo.com/12345", "", false},
		{"bare id", "j9YpkSX7NNM", "", false},
		{"free text", "not a url", "", false},
		{"malformed", "http://[::1", "", false},
		{"empty", "", "", false},
		{"blank", "   \t", "", false},
		{"short link without id", "https://youtu.be/", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, ok := Resolve(tc.raw)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantID, id)
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	raw := "https://www.youtube.com/watch?v=j9YpkSX7NNM&t=30s"
	first, ok1 := Resolve(raw)
	second, ok2 := Resolve(raw)
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, first, second)
}
