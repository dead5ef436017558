package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"caption-search-backend/internal/search"
)

// utf8BOM lets spreadsheet apps detect UTF-8 (Japanese captions are common).
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const ContentType = "text/csv; charset=utf-8"

// Filename embeds the export time, e.g. youtube_search_results_20260102_150405.csv.
func Filename(at time.Time) string {
	return fmt.Sprintf("youtube_search_results_%s.csv", at.Format("20060102_150405"))
}

// WriteCSV writes the flat projection of hits with a header row.
func WriteCSV(w io.Writer, hits []search.SearchHit) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(search.Columns); err != nil {
		return err
	}
	for _, h := range hits {
		if err := cw.Write(h.Row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVBytes is WriteCSV into memory.
func CSVBytes(hits []search.SearchHit) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, hits); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
