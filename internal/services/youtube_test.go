package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	yt "github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caption-search-backend/internal/search"
)

func TestPickTrack(t *testing.T) {
	tracks := []yt.CaptionTrack{
		{LanguageCode: "en", Kind: "asr", BaseURL: "en-asr"},
		{LanguageCode: "en", BaseURL: "en-manual"},
		{LanguageCode: "ja", Kind: "asr", BaseURL: "ja-asr"},
		{LanguageCode: "fr", BaseURL: "fr-manual"},
	}

	tests := []struct {
		name  string
		langs []string
		want  string
		ok    bool
	}{
		{"earlier language wins even if asr", []string{"ja", "en"}, "ja-asr", true},
		{"manual beats asr in same language", []string{"en", "ja"}, "en-manual", true},
		{"asr when only asr", []string{"ja"}, "ja-asr", true},
		{"order of preference", []string{"fr", "en"}, "fr-manual", true},
		{"none", []string{"de", "en-US"}, "", false},
		{"empty preferences", nil, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := pickTrack(tracks, tc.langs)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got.BaseURL)
		})
	}
}

func TestCaptionTrackList_FindTranscript(t *testing.T) {
	list := &captionTrackList{video: &yt.Video{
		ID: "vid",
		CaptionTracks: []yt.CaptionTrack{
			{LanguageCode: "ko"},
			{LanguageCode: "en", Kind: "asr"},
		},
	}}

	tr, err := list.FindTranscript([]string{"ja", "en", "en-US"})
	require.NoError(t, err)
	assert.Equal(t, "en", tr.LanguageCode())

	_, err = list.FindTranscript([]string{"ja"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: ko, en (auto)")
}

func TestNeedsPoToken(t *testing.T) {
	assert.True(t, needsPoToken("https://www.youtube.com/api/timedtext?v=x&exp=xpe&lang=en"))
	assert.False(t, needsPoToken("https://www.youtube.com/api/timedtext?v=x&lang=en"))
}

func TestExtractPageTitle(t *testing.T) {
	assert.Equal(t, "Go & Rust", extractPageTitle(`<html><head><title>Go &amp; Rust - YouTube</title></head>`))
	assert.Equal(t, "", extractPageTitle(`<title>YouTube</title>`))
	assert.Equal(t, "", extractPageTitle(`<html></html>`))
}

func newTestYouTubeService(srv *httptest.Server) *YouTubeService {
	return &YouTubeService{
		httpClient: srv.Client(),
		ytClient:   &yt.Client{HTTPClient: srv.Client()},
		oembedURL:  srv.URL + "/oembed",
		watchURL:   srv.URL + "/watch",
		titles:     make(map[string]string),
	}
}

func TestTitle_OEmbed(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/oembed", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"title":"Intro to Go","author_name":"Gopher"}`))
	}))
	defer srv.Close()

	s := newTestYouTubeService(srv)

	title, err := s.Title(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Intro to Go", title)

	title, err = s.Title(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Intro to Go", title)
	assert.Equal(t, 1, calls, "second lookup is cached")
}

func TestTitle_WatchPageFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oembed" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`<html><title>Private Talk - YouTube</title></html>`))
	}))
	defer srv.Close()

	title, err := newTestYouTubeService(srv).Title(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Private Talk", title)
}

func TestTitle_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestYouTubeService(srv).Title(context.Background(), "abc")
	var tu *search.TitleUnavailableError
	require.True(t, errors.As(err, &tu))
	assert.Equal(t, "abc", tu.VideoID)
}

func TestFetchTimedText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lang") != "ja" {
			http.Error(w, "nope", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`<transcript><text start="5.0" dur="1.0">Python rocks</text></transcript>`))
	}))
	defer srv.Close()

	s := newTestYouTubeService(srv)

	entries, err := s.fetchTimedText(context.Background(), srv.URL+"/api/timedtext?lang=ja")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, search.CaptionEntry{Text: "Python rocks", Start: 5, Duration: 1}, entries[0])

	_, err = s.fetchTimedText(context.Background(), srv.URL+"/api/timedtext?lang=en")
	assert.ErrorContains(t, err, "status 429")
}
