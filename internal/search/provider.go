package search

import (
	"context"
	"errors"
)

// DefaultLanguageAttempts is the ordered language policy: the first list is
// tried, and only if selection fails is the narrower second list tried.
var DefaultLanguageAttempts = [][]string{
	{"ja", "en", "en-US"},
	{"ja", "en"},
}

// TranscriptProvider lists the caption tracks published for a video.
type TranscriptProvider interface {
	ListTranscripts(ctx context.Context, videoID string) (TranscriptList, error)
}

// TranscriptList selects one track by ordered language preference.
type TranscriptList interface {
	FindTranscript(languages []string) (Transcript, error)
}

// Transcript is one selected caption track.
type Transcript interface {
	LanguageCode() string
	Fetch(ctx context.Context) ([]CaptionEntry, error)
}

// TitleProvider resolves a human-readable title. Errors are advisory.
type TitleProvider interface {
	Title(ctx context.Context, videoID string) (string, error)
}

var errNoLanguages = errors.New("no caption language preferences configured")

// selectTranscript walks attempts in order and returns the first track
// found. On total failure the error of the last attempt is returned as is.
func selectTranscript(list TranscriptList, attempts [][]string) (Transcript, error) {
	lastErr := errNoLanguages
	for _, langs := range attempts {
		t, err := list.FindTranscript(langs)
		if err == nil && t != nil {
			return t, nil
		}
		if err == nil {
			err = errors.New("no transcript found")
		}
		lastErr = err
	}
	return nil, lastErr
}

func fetchTranscript(ctx context.Context, p TranscriptProvider, videoID string, attempts [][]string) ([]CaptionEntry, string, error) {
	list, err := p.ListTranscripts(ctx, videoID)
	if err != nil {
		return nil, "", &TranscriptUnavailableError{VideoID: videoID, Err: err}
	}

	t, err := selectTranscript(list, attempts)
	if err != nil {
		return nil, "", &TranscriptUnavailableError{VideoID: videoID, Err: err}
	}

	entries, err := t.Fetch(ctx)
	if err != nil {
		return nil, "", &TranscriptUnavailableError{VideoID: videoID, Err: err}
	}
	return entries, t.LanguageCode(), nil
}
