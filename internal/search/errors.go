package search

import "fmt"

// ValidationError rejects a whole batch before any reference is processed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InvalidReferenceError marks a reference that is not a recognised video URL.
type InvalidReferenceError struct {
	Reference string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid reference: %q", e.Reference)
}

// TranscriptUnavailableError wraps the last failure from transcript
// listing, language selection or fetching.
type TranscriptUnavailableError struct {
	VideoID string
	Err     error
}

func (e *TranscriptUnavailableError) Error() string {
	return fmt.Sprintf("transcript unavailable for %s: %v", e.VideoID, e.Err)
}

func (e *TranscriptUnavailableError) Unwrap() error { return e.Err }

// TitleUnavailableError is returned by title providers. The orchestrator
// never propagates it; it degrades to PlaceholderTitle.
type TitleUnavailableError struct {
	VideoID string
	Err     error
}

func (e *TitleUnavailableError) Error() string {
	return fmt.Sprintf("title unavailable for %s: %v", e.VideoID, e.Err)
}

func (e *TitleUnavailableError) Unwrap() error { return e.Err }

// PlaceholderTitle is used when no title could be resolved.
func PlaceholderTitle(videoID string) string {
	return fmt.Sprintf("(title unavailable: %s)", videoID)
}
