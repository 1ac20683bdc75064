package engine

import (
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/SimonWaldherr/tinyFrame/internal/storage"
)

// DefaultMaxRows bounds the rows printed by String before the middle of the
// table is elided.
const DefaultMaxRows = 20

const ellipsis = "..."

// String renders the table as a text grid of at most DefaultMaxRows rows.
func (t *Table) String() string { return t.Render(DefaultMaxRows) }

// Render draws the table as a text grid with the row labels in the first
// column. Tables longer than maxRows show their first and last rows around
// a "..." row; maxRows <= 0 prints every row.
func (t *Table) Render(maxRows int) string {
	w := newGrid()
	header := table.Row{""}
	for _, c := range t.cols {
		header = append(header, c.Name())
	}
	w.AppendHeader(header)
	for _, r := range elide(t.NumRows(), maxRows) {
		if r < 0 {
			w.AppendRow(filler(len(t.cols) + 1))
			continue
		}
		row := table.Row{cell(t.index[r])}
		for _, c := range t.cols {
			row = append(row, cell(c.At(r)))
		}
		w.AppendRow(row)
	}
	rows, cols := t.Shape()
	w.SetCaption("[%d rows x %d columns]", rows, cols)
	return w.Render()
}

func renderSeries(s *Series, maxRows int) string {
	w := newGrid()
	w.AppendHeader(table.Row{"", s.Name()})
	for _, r := range elide(s.Len(), maxRows) {
		if r < 0 {
			w.AppendRow(filler(2))
			continue
		}
		w.AppendRow(table.Row{cell(s.index[r]), cell(s.col.At(r))})
	}
	w.SetCaption("Name: %s, Length: %d, dtype: %s", s.Name(), s.Len(), s.Type())
	return w.Render()
}

func newGrid() table.Writer {
	w := table.NewWriter()
	w.SetStyle(table.StyleLight)
	return w
}

// elide lists the row positions to print; -1 marks the elided gap.
func elide(n, maxRows int) []int {
	if maxRows <= 0 || n <= maxRows {
		return seq(0, n)
	}
	head := (maxRows + 1) / 2
	tail := maxRows - head
	out := append(seq(0, head), -1)
	return append(out, seq(n-tail, n)...)
}

func filler(n int) table.Row {
	row := make(table.Row, n)
	for i := range row {
		row[i] = ellipsis
	}
	return row
}

func cell(v storage.Value) string { return v.String() }
