package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
)

// Orchestrator runs one batch at a time: resolve, fetch, match and collect,
// reference by reference. Per-reference failures become skip records.
type Orchestrator struct {
	transcripts   TranscriptProvider
	titles        TitleProvider
	attempts      [][]string
	reporter      Reporter
	logger        *log.Logger
	maxReferences int
}

type Option func(*Orchestrator)

// WithTitles enables best-effort title lookup for references with hits.
func WithTitles(p TitleProvider) Option {
	return func(o *Orchestrator) { o.titles = p }
}

func WithLanguageAttempts(attempts [][]string) Option {
	return func(o *Orchestrator) {
		if len(attempts) > 0 {
			o.attempts = attempts
		}
	}
}

func WithReporter(r Reporter) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.reporter = r
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxReferences rejects batches with more than n references. n <= 0
// disables the limit.
func WithMaxReferences(n int) Option {
	return func(o *Orchestrator) { o.maxReferences = n }
}

func NewOrchestrator(transcripts TranscriptProvider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		transcripts: transcripts,
		attempts:    DefaultLanguageAttempts,
		reporter:    nopReporter{},
		logger:      log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validate checks normalized input. It is exported so callers can reject
// a request before queueing it.
func Validate(refs, keywords []string, maxReferences int) error {
	if len(refs) == 0 {
		return &ValidationError{Field: "references", Message: "at least one video URL is required"}
	}
	if len(keywords) == 0 {
		return &ValidationError{Field: "keywords", Message: "at least one keyword is required"}
	}
	if maxReferences > 0 && len(refs) > maxReferences {
		return &ValidationError{
			Field:   "references",
			Message: fmt.Sprintf("at most %d video URLs are allowed per search", maxReferences),
		}
	}
	return nil
}

// Run normalizes raw input and runs the batch. See RunNormalized.
func (o *Orchestrator) Run(ctx context.Context, rawReferences, rawKeywords string) (*BatchResult, error) {
	return o.RunNormalized(ctx, NormalizeReferences(rawReferences), NormalizeKeywords(rawKeywords))
}

// RunNormalized processes refs in order. The only error it returns is a
// *ValidationError; everything else is recorded in the result. If ctx is
// done between references the partial result is returned with
// Interrupted set.
func (o *Orchestrator) RunNormalized(ctx context.Context, refs, keywords []string) (*BatchResult, error) {
	if err := Validate(refs, keywords, o.maxReferences); err != nil {
		return nil, err
	}

	result := &BatchResult{
		Hits:     []SearchHit{},
		Skipped:  []SkipRecord{},
		Keywords: keywords,
		Total:    len(refs),
	}
	matcher := NewMatcher(keywords)

	for i, ref := range refs {
		label := ref
		if videoID, ok := Resolve(ref); ok {
			label = videoID
		}
		o.reporter.Progress(Progress{
			Processed: i,
			Total:     len(refs),
			Fraction:  float64(i) / float64(len(refs)),
			Status:    fmt.Sprintf("searching (%d/%d): %s", i+1, len(refs), label),
		})

		if ctx.Err() != nil {
			result.Interrupted = true
			break
		}

		hits, skip := o.processReference(ctx, i, ref, matcher)
		if skip == nil && ctx.Err() != nil && hits == nil {
			result.Interrupted = true
			break
		}
		if skip != nil {
			result.Skipped = append(result.Skipped, *skip)
			o.reporter.Skipped(*skip)
		} else {
			result.Hits = append(result.Hits, hits...)
		}
		result.Processed++
	}

	if !result.Interrupted {
		o.reporter.Progress(Progress{
			Processed: len(refs),
			Total:     len(refs),
			Fraction:  1,
			Status:    "done",
		})
	}
	return result, nil
}

// processReference returns either the hits for ref or a skip record. Both
// nil means the fetch was abandoned because ctx ended.
func (o *Orchestrator) processReference(ctx context.Context, index int, ref string, matcher *Matcher) ([]SearchHit, *SkipRecord) {
	videoID, ok := Resolve(ref)
	if !ok {
		o.logger.Printf("skip (invalid reference): %s", ref)
		return nil, &SkipRecord{
			ReferenceIndex: index,
			Reference:      ref,
			Kind:           SkipInvalidReference,
			Reason:         (&InvalidReferenceError{Reference: ref}).Error(),
		}
	}

	entries, lang, err := fetchTranscript(ctx, o.transcripts, videoID, o.attempts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil
		}
		o.logger.Printf("error (%s): could not fetch transcript: %v", videoID, err)
		return nil, &SkipRecord{
			ReferenceIndex: index,
			Reference:      ref,
			VideoID:        videoID,
			Kind:           SkipTranscriptUnavailable,
			Reason:         skipReason(err),
		}
	}

	matches := matcher.Match(entries)
	o.logger.Printf("%s: %d caption lines (%s), %d hits", videoID, len(entries), lang, len(matches))
	if len(matches) == 0 {
		return []SearchHit{}, nil
	}

	title := o.resolveTitle(ctx, videoID)
	hits := make([]SearchHit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, SearchHit{
			ReferenceIndex:  index,
			VideoID:         videoID,
			Reference:       ref,
			MatchedKeywords: m.MatchedKeywords,
			Seconds:         m.Entry.Start,
			Timestamp:       FormatTimestamp(m.Entry.Start),
			Text:            m.Entry.Text,
			Link:            DeepLink(videoID, m.Entry.Start),
			Title:           title,
		})
	}
	return hits, nil
}

func (o *Orchestrator) resolveTitle(ctx context.Context, videoID string) string {
	if o.titles == nil {
		return ""
	}
	title, err := o.titles.Title(ctx, videoID)
	title = strings.TrimSpace(title)
	if err != nil || title == "" {
		if err != nil {
			o.logger.Printf("%s: %v", videoID, err)
		}
		return PlaceholderTitle(videoID)
	}
	return title
}

// skipReason surfaces the underlying provider error text.
func skipReason(err error) string {
	var tu *TranscriptUnavailableError
	if errors.As(err, &tu) && tu.Err != nil {
		return tu.Err.Error()
	}
	return err.Error()
}
