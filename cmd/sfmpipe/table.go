package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// errorColumnWidth bounds free-text error cells so one long toolkit message
// does not stretch the whole table.
const errorColumnWidth = 60

type column struct {
	title string
	// numeric columns are right-aligned.
	numeric bool
	// maxWidth soft-wraps longer cells; zero leaves the column unbounded.
	maxWidth int
}

func numericColumn(title string) column { return column{title: title, numeric: true} }

func textColumn(title string) column { return column{title: title} }

func errorColumn(title string) column { return column{title: title, maxWidth: errorColumnWidth} }

// renderTable lays rows out under columns. Short rows are padded with empty
// cells and cells beyond the last column are dropped.
func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.title
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if col.numeric {
			configs[i].Align = text.AlignRight
		}
		if col.maxWidth > 0 {
			configs[i].WidthMax = col.maxWidth
			configs[i].WidthMaxEnforcer = text.WrapSoft
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range columns {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}
