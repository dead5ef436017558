package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"

	yt "github.com/kkdai/youtube/v2"

	"caption-search-backend/internal/search"
)

const (
	defaultOEmbedURL = "https://www.youtube.com/oembed"
	defaultWatchURL  = "https://www.youtube.com/watch"
)

var ErrNoTranscripts = errors.New("transcripts are disabled for this video")

// YouTubeService implements search.TranscriptProvider and
// search.TitleProvider on top of one FetchSession.
type YouTubeService struct {
	httpClient *http.Client
	ytClient   *yt.Client
	oembedURL  string
	watchURL   string

	mu     sync.Mutex
	titles map[string]string
}

func NewYouTubeService(session *FetchSession) *YouTubeService {
	return &YouTubeService{
		httpClient: session.HTTPClient,
		ytClient:   &yt.Client{HTTPClient: session.HTTPClient},
		oembedURL:  defaultOEmbedURL,
		watchURL:   defaultWatchURL,
		titles:     make(map[string]string),
	}
}

// ListTranscripts loads the video's caption tracks.
func (s *YouTubeService) ListTranscripts(ctx context.Context, videoID string) (search.TranscriptList, error) {
	video, err := s.ytClient.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch YouTube video metadata: %w", err)
	}

	if video.Title != "" {
		s.mu.Lock()
		s.titles[videoID] = video.Title
		s.mu.Unlock()
	}

	if len(video.CaptionTracks) == 0 {
		return nil, ErrNoTranscripts
	}

	return &captionTrackList{svc: s, video: video}, nil
}

type captionTrackList struct {
	svc   *YouTubeService
	video *yt.Video
}

func (l *captionTrackList) FindTranscript(languages []string) (search.Transcript, error) {
	track, ok := pickTrack(l.video.CaptionTracks, languages)
	if !ok {
		return nil, fmt.Errorf("no transcripts were found for any of the requested language codes %v (available: %s)",
			languages, availableLanguages(l.video.CaptionTracks))
	}
	return &captionTranscript{svc: l.svc, video: l.video, track: track}, nil
}

// pickTrack walks the preferred languages in order. Within a language a
// manually created track beats an auto-generated one; the first language
// with any track wins.
func pickTrack(tracks []yt.CaptionTrack, languages []string) (yt.CaptionTrack, bool) {
	for _, lang := range languages {
		generated := -1
		for i, t := range tracks {
			if t.LanguageCode != lang {
				continue
			}
			if t.Kind != "asr" {
				return t, true
			}
			if generated < 0 {
				generated = i
			}
		}
		if generated >= 0 {
			return tracks[generated], true
		}
	}
	return yt.CaptionTrack{}, false
}

func availableLanguages(tracks []yt.CaptionTrack) string {
	codes := make([]string, 0, len(tracks))
	for _, t := range tracks {
		code := t.LanguageCode
		if t.Kind == "asr" {
			code += " (auto)"
		}
		codes = append(codes, code)
	}
	return strings.Join(codes, ", ")
}

type captionTranscript struct {
	svc   *YouTubeService
	video *yt.Video
	track yt.CaptionTrack
}

func (t *captionTranscript) LanguageCode() string { return t.track.LanguageCode }

// Fetch reads the selected track's timed-text document, falling back to
// the innertube transcript endpoint.
func (t *captionTranscript) Fetch(ctx context.Context) ([]search.CaptionEntry, error) {
	var timedTextErr error
	if t.track.BaseURL != "" && !needsPoToken(t.track.BaseURL) {
		entries, err := t.svc.fetchTimedText(ctx, t.track.BaseURL)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
		if err == nil {
			err = errors.New("caption track is empty")
		}
		timedTextErr = err
	} else {
		timedTextErr = errors.New("caption track requires a PoToken")
	}

	segments, err := t.svc.ytClient.GetTranscriptCtx(ctx, t.video, t.track.LanguageCode)
	if err != nil {
		return nil, fmt.Errorf("timedtext fetch failed (%v) and transcript API fallback failed: %w", timedTextErr, err)
	}

	entries := make([]search.CaptionEntry, 0, len(segments))
	for _, seg := range segments {
		text := cleanCaptionText(seg.Text)
		if text == "" {
			continue
		}
		entries = append(entries, search.CaptionEntry{
			Text:     text,
			Start:    float64(seg.StartMs) / 1000,
			Duration: float64(seg.Duration) / 1000,
		})
	}
	if len(entries) == 0 {
		return nil, errors.New("subtitle track is empty")
	}
	return entries, nil
}

// needsPoToken reports whether a caption URL only works from a browser.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

func (s *YouTubeService) fetchTimedText(ctx context.Context, captionURL string) ([]search.CaptionEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, captionURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch captions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch captions: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("failed to read captions: %w", err)
	}

	entries, err := parseCaptionsXML(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse captions XML: %w", err)
	}
	return entries, nil
}

// Title returns the video title. The title seen while listing transcripts
// is reused; otherwise oEmbed is asked, then the watch page is scraped.
func (s *YouTubeService) Title(ctx context.Context, videoID string) (string, error) {
	s.mu.Lock()
	cached, ok := s.titles[videoID]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	title, oembedErr := s.titleFromOEmbed(ctx, videoID)
	if oembedErr != nil || title == "" {
		var pageErr error
		title, pageErr = s.titleFromWatchPage(ctx, videoID)
		if pageErr != nil || title == "" {
			if pageErr == nil {
				pageErr = errors.New("no title in watch page")
			}
			return "", &search.TitleUnavailableError{
				VideoID: videoID,
				Err:     fmt.Errorf("oembed: %v; watch page: %w", oembedErr, pageErr),
			}
		}
	}

	s.mu.Lock()
	s.titles[videoID] = title
	s.mu.Unlock()
	return title, nil
}

func (s *YouTubeService) titleFromOEmbed(ctx context.Context, videoID string) (string, error) {
	q := url.Values{}
	q.Set("url", s.watchURL+"?v="+videoID)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.oembedURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	var oembed struct {
		Title      string `json:"title"`
		AuthorName string `json:"author_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&oembed); err != nil {
		return "", fmt.Errorf("decode oembed: %w", err)
	}
	return strings.TrimSpace(oembed.Title), nil
}

var titleRe = regexp.MustCompile(`(?s)<title>(.*?)</title>`)

func (s *YouTubeService) titleFromWatchPage(ctx context.Context, videoID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.watchURL+"?v="+url.QueryEscape(videoID), nil)
	if err != nil {
		return "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch YouTube page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return "", fmt.Errorf("failed to read YouTube page: %w", err)
	}

	return extractPageTitle(string(body)), nil
}

// extractPageTitle returns the <title> text without the " - YouTube"
// suffix. The bare site title means the video page was not served.
func extractPageTitle(page string) string {
	m := titleRe.FindStringSubmatch(page)
	if len(m) < 2 {
		return ""
	}
	title := strings.TrimSpace(html.UnescapeString(m[1]))
	title = strings.TrimSpace(strings.TrimSuffix(title, "- YouTube"))
	if title == "YouTube" {
		return ""
	}
	return title
}
