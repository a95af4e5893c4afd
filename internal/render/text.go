package render

import (
	"strings"

	"github.com/olekukonko/tablewriter"
)

// TextTable buffers rows and renders them as an ASCII grid. The first appended
// row is the header.
type TextTable struct {
	Title string
	rows  [][]string
}

// NewTextTable creates an empty TextTable.
func NewTextTable(title string) *TextTable {
	return &TextTable{Title: title}
}

func (t *TextTable) Clear() { t.rows = nil }

func (t *TextTable) AppendRow(cells []string) {
	row := make([]string, len(cells))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Rows returns every row including the header.
func (t *TextTable) Rows() [][]string { return t.rows }

// Len returns the row count including the header.
func (t *TextTable) Len() int { return len(t.rows) }

func (t *TextTable) String() string {
	display := &strings.Builder{}
	if t.Title != "" {
		display.WriteString(t.Title + ":\n")
	}
	if len(t.rows) == 0 {
		display.WriteString("(no data)\n")
		return display.String()
	}

	table := tablewriter.NewWriter(display)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetHeader(t.rows[0])
	table.AppendBulk(t.rows[1:])
	table.Render()
	return display.String()
}
