package search

import (
	"strconv"
	"strings"
)

// Columns is the header of the flat projection.
var Columns = []string{"Title", "Video ID", "Original URL", "Keyword", "Time", "Text", "Link", "Seconds"}

// Rows returns the flat projection: one row per hit, ordered as Columns.
func (r *BatchResult) Rows() [][]string {
	rows := make([][]string, 0, len(r.Hits))
	for _, h := range r.Hits {
		rows = append(rows, h.Row())
	}
	return rows
}

// Row renders a hit in Columns order.
func (h SearchHit) Row() []string {
	return []string{
		h.Title,
		h.VideoID,
		h.Reference,
		strings.Join(h.MatchedKeywords, ", "),
		h.Timestamp,
		h.Text,
		h.Link,
		strconv.FormatFloat(h.Seconds, 'f', -1, 64),
	}
}

// VideoGroup is the hits of one reference occurrence.
type VideoGroup struct {
	ReferenceIndex int         `json:"reference_index"`
	VideoID        string      `json:"video_id"`
	Reference      string      `json:"original_url"`
	Title          string      `json:"title,omitempty"`
	Hits           []SearchHit `json:"hits"`
}

// Groups returns hits grouped per reference occurrence, in input order.
// Duplicate references stay separate groups.
func (r *BatchResult) Groups() []VideoGroup {
	return GroupHits(r.Hits)
}

// GroupHits groups consecutive hits by ReferenceIndex. Hits produced by a
// batch are already ordered by reference.
func GroupHits(hits []SearchHit) []VideoGroup {
	var groups []VideoGroup
	for _, h := range hits {
		n := len(groups)
		if n == 0 || groups[n-1].ReferenceIndex != h.ReferenceIndex {
			groups = append(groups, VideoGroup{
				ReferenceIndex: h.ReferenceIndex,
				VideoID:        h.VideoID,
				Reference:      h.Reference,
				Title:          h.Title,
			})
			n++
		}
		groups[n-1].Hits = append(groups[n-1].Hits, h)
	}
	return groups
}
