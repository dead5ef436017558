package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleTranscript = []CaptionEntry{
	{Text: "Hello everyone, welcome to the channel.", Start: 0, Duration: 5},
	{Text: "Today we are going to talk about Python programming.", Start: 5, Duration: 5},
	{Text: "It is a great language for data science.", Start: 10, Duration: 5},
	{Text: "And it is getting faster with every release.", Start: 15, Duration: 5},
	{Text: "So let's dive in.", Start: 20, Duration: 5},
}

func TestMatch_SingleKeyword(t *testing.T) {
	matches := MatchEntries(sampleTranscript, []string{"Python"})

	require.Len(t, matches, 1)
	assert.Equal(t, "Today we are going to talk about Python programming.", matches[0].Entry.Text)
	assert.Equal(t, []string{"Python"}, matches[0].MatchedKeywords)
}

func TestMatch_CaseInsensitive(t *testing.T) {
	for _, text := range []string{"PYTHON", "python", "PyThOn", "I love pYtHoN!"} {
		matches := MatchEntries([]CaptionEntry{{Text: text}}, []string{"Python"})
		assert.Len(t, matches, 1, text)
	}
}

func TestMatch_UnicodeFolding(t *testing.T) {
	matches := MatchEntries([]CaptionEntry{{Text: "ΣΟΦΙΑ and ÉCOLE"}}, []string{"σοφια", "école"})

	require.Len(t, matches, 1)
	assert.Equal(t, []string{"σοφια", "école"}, matches[0].MatchedKeywords)
}

func TestMatch_ORAcrossKeywords(t *testing.T) {
	matches := MatchEntries(sampleTranscript, []string{"python", "faster"})

	require.Len(t, matches, 2)
	assert.Equal(t, []string{"python"}, matches[0].MatchedKeywords)
	assert.Equal(t, []string{"faster"}, matches[1].MatchedKeywords)
}

func TestMatch_AllMatchingKeywordsInInputOrder(t *testing.T) {
	entries := []CaptionEntry{{Text: "AI with Python is fun", Start: 3}}
	matches := MatchEntries(entries, []string{"fun", "Ruby", "python", "ai"})

	require.Len(t, matches, 1)
	assert.Equal(t, []string{"fun", "python", "ai"}, matches[0].MatchedKeywords)
}

func TestMatch_DuplicateKeywordsPreserved(t *testing.T) {
	matches := MatchEntries([]CaptionEntry{{Text: "ai"}}, []string{"AI", "ai"})

	require.Len(t, matches, 1)
	assert.Equal(t, []string{"AI", "ai"}, matches[0].MatchedKeywords)
}

func TestMatch_NoHits(t *testing.T) {
	assert.Empty(t, MatchEntries(sampleTranscript, []string{"Ruby"}))
	assert.Empty(t, MatchEntries(nil, []string{"Ruby"}))
	assert.Empty(t, MatchEntries(sampleTranscript, nil))
}
