package search

import (
	"fmt"
	"math"
)

// FormatTimestamp renders seconds as H:MM:SS. Fractions are truncated,
// never rounded, and negative input clamps to zero.
func FormatTimestamp(seconds float64) string {
	total := wholeSeconds(seconds)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// DeepLink builds the short link that opens videoID at the given second.
func DeepLink(videoID string, seconds float64) string {
	return fmt.Sprintf("%s%s?t=%d", DeepLinkPrefix, videoID, wholeSeconds(seconds))
}

func wholeSeconds(seconds float64) int64 {
	if seconds <= 0 || math.IsNaN(seconds) {
		return 0
	}
	return int64(math.Trunc(seconds))
}
