package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// gridTable is the render target the coordinator writes into. The first row
// is the header; view copies it into a bubbles table after each render step.
type gridTable struct {
	rows [][]string
}

func (g *gridTable) Clear() { g.rows = nil }

func (g *gridTable) AppendRow(cells []string) {
	row := make([]string, len(cells))
	copy(row, cells)
	g.rows = append(g.rows, row)
}

// dataRows excludes the header.
func (g *gridTable) dataRows() int {
	if len(g.rows) == 0 {
		return 0
	}
	return len(g.rows) - 1
}

// syncView replaces v's columns and rows with g's. Rows are cleared before
// the columns change so the table never renders rows wider than its columns.
func syncView(v *table.Model, g *gridTable) {
	v.SetRows(nil)
	if len(g.rows) == 0 {
		v.SetColumns(nil)
		return
	}

	header := g.rows[0]
	widths := make([]int, len(header))
	for _, r := range g.rows {
		for i := 0; i < len(r) && i < len(widths); i++ {
			if w := lipgloss.Width(r[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}
	cols := make([]table.Column, len(header))
	for i, h := range header {
		cols[i] = table.Column{Title: h, Width: widths[i] + 1}
	}

	rows := make([]table.Row, 0, g.dataRows())
	for _, r := range g.rows[1:] {
		rows = append(rows, table.Row(r))
	}
	v.SetColumns(cols)
	v.SetRows(rows)
	v.GotoTop()
}
