package search

import (
	"net/url"
	"strings"
)

const (
	shortHost = "youtu.be"

	// DeepLinkPrefix is the short-link prefix used for timestamped links.
	DeepLinkPrefix = "https://youtu.be/"
)

var fullHosts = map[string]bool{
	"www.youtube.com": true,
	"youtube.com":     true,
}

// Resolve extracts the video ID from a YouTube URL. It recognises
// youtu.be/<id>, /watch?v=<id>, /embed/<id> and /v/<id>. Anything else,
// including blank input and unparsable URLs, reports ok == false.
func Resolve(raw string) (videoID string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case host == shortHost:
		videoID = pathSegment(u.Path, 1)
	case fullHosts[host]:
		switch {
		case u.Path == "/watch":
			videoID = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/embed/"):
			videoID = pathSegment(u.Path, 2)
		case strings.HasPrefix(u.Path, "/v/"):
			videoID = pathSegment(u.Path, 2)
		}
	}

	if videoID == "" {
		return "", false
	}
	return videoID, true
}

// pathSegment returns the n-th element of path split on "/".
// "/embed/abc/extra" with n == 2 yields "abc".
func pathSegment(path string, n int) string {
	parts := strings.Split(path, "/")
	if len(parts) <= n {
		return ""
	}
	return parts[n]
}
