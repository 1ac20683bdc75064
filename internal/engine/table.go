// Package engine implements tinyFrame's tabular query engine.
//
// A Table is an ordered list of typed columns plus a row index of labels.
// Tables are immutable: every query (Select, Loc, ILoc, Filter, SortBy, ...)
// returns a new Table and leaves its receiver untouched. Projections share
// column storage with their source; operations that drop or reorder rows
// build fresh columns. Because cells are never mutated, both are
// indistinguishable from deep copies to a caller.
//
// Two selection contracts coexist and are deliberately different:
// label-based selection (Loc, LabelRange) includes its end label, while
// position-based selection (ILoc, Span) excludes its end position.
package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/SimonWaldherr/tinyFrame/internal/storage"
)

// Table is a two-dimensional labelled dataset of equal-length columns.
type Table struct {
	id     uuid.UUID
	cols   []*storage.Column
	colPos map[string]int
	index  []storage.Value

	labelsOnce sync.Once
	labelPos   map[storage.Value][]int
}

// New builds a table from columns. All columns must have the same length and
// distinct names. Rows are labelled 0..n-1.
func New(cols ...*storage.Column) (*Table, error) {
	n := 0
	if len(cols) > 0 {
		n = cols[0].Len()
	}
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if c.Len() != n {
			return nil, fmt.Errorf("%w: column %q has %d rows, expected %d", storage.ErrShapeMismatch, c.Name(), c.Len(), n)
		}
		if seen[c.Name()] {
			return nil, fmt.Errorf("%w: %q", storage.ErrDuplicateColumn, c.Name())
		}
		seen[c.Name()] = true
	}
	return newTable(append([]*storage.Column(nil), cols...), rangeIndex(n)), nil
}

// FromMap builds a table from a columnar mapping of name to slice. Columns
// follow order; names missing from order are appended alphabetically.
func FromMap(data map[string]any, order ...string) (*Table, error) {
	names := make([]string, 0, len(data))
	listed := make(map[string]bool, len(order))
	for _, name := range order {
		if _, ok := data[name]; !ok {
			return nil, fmt.Errorf("%w: column %q", storage.ErrLabelNotFound, name)
		}
		if listed[name] {
			return nil, fmt.Errorf("%w: %q", storage.ErrDuplicateColumn, name)
		}
		listed[name] = true
		names = append(names, name)
	}
	var rest []string
	for name := range data {
		if !listed[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	cols := make([]*storage.Column, len(names))
	for i, name := range names {
		c, err := storage.NewColumn(name, data[name])
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	return New(cols...)
}

// MustNew is New for fixtures; it panics on error.
func MustNew(cols ...*storage.Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

func newTable(cols []*storage.Column, index []storage.Value) *Table {
	pos := make(map[string]int, len(cols))
	for i, c := range cols {
		pos[c.Name()] = i
	}
	return &Table{id: uuid.New(), cols: cols, colPos: pos, index: index}
}

func rangeIndex(n int) []storage.Value {
	idx := make([]storage.Value, n)
	for i := range idx {
		idx[i] = storage.Int(int64(i))
	}
	return idx
}

// ID identifies this snapshot. Every derived table gets a fresh ID.
func (t *Table) ID() uuid.UUID { return t.id }

// Shape returns (row count, column count).
func (t *Table) Shape() (rows, cols int) { return len(t.index), len(t.cols) }

func (t *Table) NumRows() int { return len(t.index) }
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name()
	}
	return out
}

// Types returns the column types in order.
func (t *Table) Types() []storage.ColType {
	out := make([]storage.ColType, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Type()
	}
	return out
}

// Index returns a copy of the row labels.
func (t *Table) Index() []storage.Value { return append([]storage.Value(nil), t.index...) }

// ColIndex returns the zero-based position of the named column.
func (t *Table) ColIndex(name string) (int, error) {
	i, ok := t.colPos[name]
	if !ok {
		return -1, fmt.Errorf("%w: column %q", storage.ErrLabelNotFound, name)
	}
	return i, nil
}

// Column selects one column as a one-dimensional Series that keeps the row
// labels.
func (t *Table) Column(name string) (*Series, error) {
	i, err := t.ColIndex(name)
	if err != nil {
		return nil, err
	}
	return &Series{col: t.cols[i], index: t.index}, nil
}

// Select returns a table holding only the named columns, in request order.
// Even a single name yields a Table, not a Series.
func (t *Table) Select(names ...string) (*Table, error) {
	positions, err := t.colPositions(names)
	if err != nil {
		return nil, err
	}
	return t.project(positions), nil
}

func (t *Table) colPositions(names []string) ([]int, error) {
	positions := make([]int, len(names))
	seen := make(map[string]bool, len(names))
	for i, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("%w: %q selected twice", storage.ErrDuplicateColumn, name)
		}
		seen[name] = true
		p, err := t.ColIndex(name)
		if err != nil {
			return nil, err
		}
		positions[i] = p
	}
	return positions, nil
}

// project keeps the given columns and all rows. Column storage is shared.
func (t *Table) project(colPositions []int) *Table {
	cols := make([]*storage.Column, len(colPositions))
	for i, p := range colPositions {
		cols[i] = t.cols[p]
	}
	return newTable(cols, t.index)
}

// take keeps the given rows (in the given order) and columns.
func (t *Table) take(rowPositions, colPositions []int) *Table {
	cols := make([]*storage.Column, len(colPositions))
	for i, p := range colPositions {
		cols[i] = t.cols[p].Take(rowPositions)
	}
	index := make([]storage.Value, len(rowPositions))
	for i, r := range rowPositions {
		index[i] = t.index[r]
	}
	return newTable(cols, index)
}

func (t *Table) allColPositions() []int { return seq(0, len(t.cols)) }
func (t *Table) allRowPositions() []int { return seq(0, len(t.index)) }

func seq(lo, hi int) []int {
	out := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, i)
	}
	return out
}

// Head returns the first n rows (fewer if the table is shorter).
func (t *Table) Head(n int) *Table {
	n = clamp(n, 0, t.NumRows())
	return t.take(seq(0, n), t.allColPositions())
}

// Tail returns the last n rows.
func (t *Table) Tail(n int) *Table {
	n = clamp(n, 0, t.NumRows())
	return t.take(seq(t.NumRows()-n, t.NumRows()), t.allColPositions())
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WithIndex replaces the row labels. labels accepts the same slice types as
// storage.NewColumn and must match the row count.
func (t *Table) WithIndex(labels any) (*Table, error) {
	c, err := storage.NewColumn("index", labels)
	if err != nil {
		return nil, err
	}
	if c.Len() != t.NumRows() {
		return nil, fmt.Errorf("%w: %d labels for %d rows", storage.ErrShapeMismatch, c.Len(), t.NumRows())
	}
	return newTable(t.cols, c.Values()), nil
}

// SetIndex moves the named column into the row index.
func (t *Table) SetIndex(name string) (*Table, error) {
	p, err := t.ColIndex(name)
	if err != nil {
		return nil, err
	}
	keep := make([]*storage.Column, 0, len(t.cols)-1)
	for i, c := range t.cols {
		if i != p {
			keep = append(keep, c)
		}
	}
	return newTable(keep, t.cols[p].Values()), nil
}

// ResetIndex relabels rows 0..n-1. Unless drop is set, the old labels are
// kept as a leading column named "index".
func (t *Table) ResetIndex(drop bool) (*Table, error) {
	if drop {
		return newTable(t.cols, rangeIndex(t.NumRows())), nil
	}
	if _, exists := t.colPos["index"]; exists {
		return nil, fmt.Errorf("%w: %q", storage.ErrDuplicateColumn, "index")
	}
	labels, err := storage.NewColumn("index", t.index)
	if err != nil {
		return nil, err
	}
	cols := append([]*storage.Column{labels}, t.cols...)
	return newTable(cols, rangeIndex(t.NumRows())), nil
}

// WithColumn returns a table with c appended, or replacing the column of the
// same name in place.
func (t *Table) WithColumn(c *storage.Column) (*Table, error) {
	if c.Len() != t.NumRows() {
		return nil, fmt.Errorf("%w: column %q has %d rows, expected %d", storage.ErrShapeMismatch, c.Name(), c.Len(), t.NumRows())
	}
	cols := append([]*storage.Column(nil), t.cols...)
	if p, ok := t.colPos[c.Name()]; ok {
		cols[p] = c
	} else {
		cols = append(cols, c)
	}
	return newTable(cols, t.index), nil
}

// Drop returns a table without the named columns.
func (t *Table) Drop(names ...string) (*Table, error) {
	gone := make(map[int]bool, len(names))
	for _, name := range names {
		p, err := t.ColIndex(name)
		if err != nil {
			return nil, err
		}
		gone[p] = true
	}
	keep := make([]int, 0, len(t.cols))
	for i := range t.cols {
		if !gone[i] {
			keep = append(keep, i)
		}
	}
	return t.project(keep), nil
}

// positionsOf returns every row position carrying label, in row order.
func (t *Table) positionsOf(label storage.Value) []int {
	t.labelsOnce.Do(func() {
		t.labelPos = make(map[storage.Value][]int, len(t.index))
		for i, l := range t.index {
			k := l.Key()
			t.labelPos[k] = append(t.labelPos[k], i)
		}
	})
	return t.labelPos[label.Key()]
}
