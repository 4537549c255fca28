package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. Numeric columns are right aligned and
// wide free-text columns wrap at maxWidth.
type column struct {
	title    string
	numeric  bool
	maxWidth int
}

func col(title string) column { return column{title: title} }
func numCol(title string) column { return column{title: title, numeric: true} }
func wideCol(title string) column { return column{title: title, maxWidth: 72} }

// renderTable draws rows under columns. Short rows are padded with blanks and
// cells past the last column are dropped.
func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		header[i] = c.title
		configs[i] = table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft, WidthMax: c.maxWidth}
		if c.numeric {
			configs[i].Align = text.AlignRight
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}
