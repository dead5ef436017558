package search

// CaptionEntry is one timed caption line. Start and Duration are in seconds.
type CaptionEntry struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// SearchHit is one caption line that matched at least one keyword.
type SearchHit struct {
	ReferenceIndex  int      `json:"reference_index"`
	VideoID         string   `json:"video_id"`
	Reference       string   `json:"original_url"`
	MatchedKeywords []string `json:"keywords"`
	Seconds         float64  `json:"seconds"`
	Timestamp       string   `json:"time"`
	Text            string   `json:"text"`
	Link            string   `json:"link"`
	Title           string   `json:"title,omitempty"`
}

type SkipKind string

const (
	SkipInvalidReference      SkipKind = "invalid_reference"
	SkipTranscriptUnavailable SkipKind = "transcript_unavailable"
)

// SkipRecord explains why a reference produced no hits.
type SkipRecord struct {
	ReferenceIndex int      `json:"reference_index"`
	Reference      string   `json:"original_url"`
	VideoID        string   `json:"video_id,omitempty"`
	Kind           SkipKind `json:"kind"`
	Reason         string   `json:"reason"`
}

// BatchResult is the aggregate output of one batch run.
type BatchResult struct {
	Hits        []SearchHit  `json:"hits"`
	Skipped     []SkipRecord `json:"skipped"`
	Keywords    []string     `json:"keywords"`
	Total       int          `json:"total_references"`
	Processed   int          `json:"processed_references"`
	Interrupted bool         `json:"interrupted"`
}

// Progress is emitted once per reference before it is processed, and once
// more with Fraction 1 when the batch completes.
type Progress struct {
	Processed int     `json:"processed"`
	Total     int     `json:"total"`
	Fraction  float64 `json:"fraction"`
	Status    string  `json:"status"`
}

// Reporter receives progress and per-reference skip notifications.
// Implementations must not block for long; they run on the batch goroutine.
type Reporter interface {
	Progress(p Progress)
	Skipped(rec SkipRecord)
}

type nopReporter struct{}

func (nopReporter) Progress(Progress)   {}
func (nopReporter) Skipped(SkipRecord) {}

// ReporterFuncs adapts plain functions to Reporter. Nil fields are ignored.
type ReporterFuncs struct {
	OnProgress func(Progress)
	OnSkipped  func(SkipRecord)
}

func (r ReporterFuncs) Progress(p Progress) {
	if r.OnProgress != nil {
		r.OnProgress(p)
	}
}

func (r ReporterFuncs) Skipped(rec SkipRecord) {
	if r.OnSkipped != nil {
		r.OnSkipped(rec)
	}
}
