package services

import (
	"encoding/xml"
	"fmt"
	"html"
	"strconv"
	"strings"

	"caption-search-backend/internal/search"
)

// timedTextXML covers both timed-text layouts: the classic
// <transcript><text start dur> form and srv3 <timedtext><body><p t d>.
type timedTextXML struct {
	Texts      []textXML      `xml:"text"`
	Paragraphs []paragraphXML `xml:"body>p"`
}

type textXML struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",chardata"`
}

type paragraphXML struct {
	T     string `xml:"t,attr"`
	D     string `xml:"d,attr"`
	Text  string `xml:",chardata"`
	Spans []struct {
		Text string `xml:",chardata"`
	} `xml:"s"`
}

func parseCaptionsXML(data []byte) ([]search.CaptionEntry, error) {
	var tt timedTextXML
	if err := xml.Unmarshal(data, &tt); err != nil {
		return nil, err
	}

	var entries []search.CaptionEntry
	for _, t := range tt.Texts {
		text := cleanCaptionText(t.Text)
		if text == "" {
			continue
		}
		entries = append(entries, search.CaptionEntry{
			Text:     text,
			Start:    parseSeconds(t.Start),
			Duration: parseSeconds(t.Dur),
		})
	}

	for _, p := range tt.Paragraphs {
		raw := p.Text
		for _, s := range p.Spans {
			raw += s.Text
		}
		text := cleanCaptionText(raw)
		if text == "" {
			continue
		}
		entries = append(entries, search.CaptionEntry{
			Text:     text,
			Start:    parseMillis(p.T),
			Duration: parseMillis(p.D),
		})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("captions XML empty")
	}
	return entries, nil
}

// cleanCaptionText unescapes entities (timed text is often double
// escaped) and collapses line breaks.
func cleanCaptionText(s string) string {
	s = html.UnescapeString(html.UnescapeString(s))
	return strings.Join(strings.Fields(s), " ")
}

func parseSeconds(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

func parseMillis(v string) float64 {
	return parseSeconds(v) / 1000
}
