package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"caption-search-backend/internal/search"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

const maxTextWidth = 60

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    maxTextWidth,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func renderHits(hits []search.SearchHit) string {
	rows := make([][]string, 0, len(hits))
	for _, h := range hits {
		rows = append(rows, []string{
			h.Title,
			h.Timestamp,
			strings.Join(h.MatchedKeywords, ", "),
			h.Text,
			h.Link,
		})
	}
	return renderTable(
		[]string{"Title", "Time", "Keyword", "Text", "Link"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	)
}

func renderGroups(groups []search.VideoGroup) string {
	var b strings.Builder
	for i, g := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		line := fmt.Sprintf("== %s (%s, %d hits) ==", g.Title, g.VideoID, len(g.Hits))
		b.WriteString(line + "\n")

		rows := make([][]string, 0, len(g.Hits))
		for _, h := range g.Hits {
			rows = append(rows, []string{h.Timestamp, strings.Join(h.MatchedKeywords, ", "), h.Text, h.Link})
		}
		b.WriteString(renderTable([]string{"Time", "Keyword", "Text", "Link"}, rows, []columnAlignment{alignRight}))
		b.WriteString("\n")
	}
	return b.String()
}

func renderSkips(skips []search.SkipRecord) string {
	rows := make([][]string, 0, len(skips))
	for _, s := range skips {
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.ReferenceIndex+1),
			s.Reference,
			string(s.Kind),
			s.Reason,
		})
	}
	return renderTable([]string{"#", "Reference", "Kind", "Reason"}, rows, []columnAlignment{alignRight})
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
