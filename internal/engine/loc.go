package engine

import (
	"fmt"

	"github.com/SimonWaldherr/tinyFrame/internal/storage"
)

// ============================================================================
// Label-based selection
// ============================================================================

// RowSpec selects rows by label for Loc.
type RowSpec interface {
	rowPositions(t *Table) ([]int, error)
}

// ColSpec selects columns by name for Loc.
type ColSpec interface {
	colPositions(t *Table) ([]int, error)
}

type labelSpec struct{ labels []any }

type labelRange struct{ lo, hi any }

type maskSpec struct{ mask Mask }

type condSpec struct{ cond Cond }

type allRows struct{}

// Label selects every row carrying the label.
func Label(label any) RowSpec { return labelSpec{labels: []any{label}} }

// Labels selects the rows of each label, in request order.
func Labels(labels ...any) RowSpec { return labelSpec{labels: labels} }

// LabelRange selects from the first row labelled lo through the last row
// labelled hi. Both bounds are included.
func LabelRange(lo, hi any) RowSpec { return labelRange{lo: lo, hi: hi} }

// Where selects rows where the mask is true.
func Where(m Mask) RowSpec { return maskSpec{mask: m} }

// Match selects rows where the condition holds.
func Match(c Cond) RowSpec { return condSpec{cond: c} }

// AllRows selects every row.
func AllRows() RowSpec { return allRows{} }

func (s labelSpec) rowPositions(t *Table) ([]int, error) {
	var out []int
	for _, l := range s.labels {
		label, err := storage.ValueOf(l)
		if err != nil {
			return nil, err
		}
		pos := t.positionsOf(label)
		if len(pos) == 0 {
			return nil, fmt.Errorf("%w: row %v", storage.ErrLabelNotFound, label)
		}
		out = append(out, pos...)
	}
	return out, nil
}

func (s labelRange) rowPositions(t *Table) ([]int, error) {
	lo, err := storage.ValueOf(s.lo)
	if err != nil {
		return nil, err
	}
	hi, err := storage.ValueOf(s.hi)
	if err != nil {
		return nil, err
	}
	start := t.positionsOf(lo)
	if len(start) == 0 {
		return nil, fmt.Errorf("%w: row %v", storage.ErrLabelNotFound, lo)
	}
	end := t.positionsOf(hi)
	if len(end) == 0 {
		return nil, fmt.Errorf("%w: row %v", storage.ErrLabelNotFound, hi)
	}
	first, last := start[0], end[len(end)-1]
	if last < first {
		return []int{}, nil
	}
	return seq(first, last+1), nil
}

func (s maskSpec) rowPositions(t *Table) ([]int, error) {
	if err := s.mask.Err(); err != nil {
		return nil, err
	}
	if s.mask.Len() != t.NumRows() {
		return nil, fmt.Errorf("%w: mask has %d rows, table has %d", storage.ErrShapeMismatch, s.mask.Len(), t.NumRows())
	}
	return s.mask.positions(), nil
}

func (s condSpec) rowPositions(t *Table) ([]int, error) {
	return maskSpec{mask: s.cond.Mask(t)}.rowPositions(t)
}

func (allRows) rowPositions(t *Table) ([]int, error) { return t.allRowPositions(), nil }

type colNames struct{ names []string }

type colRange struct{ lo, hi string }

type allCols struct{}

// Cols selects the named columns in request order.
func Cols(names ...string) ColSpec { return colNames{names: names} }

// ColRange selects the columns from lo through hi, both included.
func ColRange(lo, hi string) ColSpec { return colRange{lo: lo, hi: hi} }

// AllCols selects every column.
func AllCols() ColSpec { return allCols{} }

func (s colNames) colPositions(t *Table) ([]int, error) { return t.colPositions(s.names) }

func (s colRange) colPositions(t *Table) ([]int, error) {
	lo, err := t.ColIndex(s.lo)
	if err != nil {
		return nil, err
	}
	hi, err := t.ColIndex(s.hi)
	if err != nil {
		return nil, err
	}
	if hi < lo {
		return []int{}, nil
	}
	return seq(lo, hi+1), nil
}

func (allCols) colPositions(t *Table) ([]int, error) { return t.allColPositions(), nil }

// Loc selects rows and columns by label. A nil spec selects everything.
func (t *Table) Loc(rows RowSpec, cols ColSpec) (*Table, error) {
	if rows == nil {
		rows = AllRows()
	}
	if cols == nil {
		cols = AllCols()
	}
	rp, err := rows.rowPositions(t)
	if err != nil {
		return nil, fmt.Errorf("loc: %w", err)
	}
	cp, err := cols.colPositions(t)
	if err != nil {
		return nil, fmt.Errorf("loc: %w", err)
	}
	return t.take(rp, cp), nil
}

// At returns the single value at (row label, column name). With duplicate
// labels the first matching row wins.
func (t *Table) At(label any, col string) (storage.Value, error) {
	l, err := storage.ValueOf(label)
	if err != nil {
		return storage.Missing(), err
	}
	c, err := t.ColIndex(col)
	if err != nil {
		return storage.Missing(), err
	}
	pos := t.positionsOf(l)
	if len(pos) == 0 {
		return storage.Missing(), fmt.Errorf("%w: row %v", storage.ErrLabelNotFound, l)
	}
	return t.cols[c].At(pos[0]), nil
}

// ============================================================================
// Position-based selection
// ============================================================================

// Span is a half-open position range [Start, Stop): Stop is excluded.
type Span struct {
	Start, Stop int
	all         bool
}

// All spans every position.
func All() Span { return Span{all: true} }

// Range is shorthand for Span{Start: start, Stop: stop}.
func Range(start, stop int) Span { return Span{Start: start, Stop: stop} }

func (s Span) resolve(n int, axis string) ([]int, error) {
	if s.all {
		return seq(0, n), nil
	}
	if s.Start < 0 || s.Stop > n || s.Start > s.Stop {
		return nil, fmt.Errorf("%w: %s [%d:%d) of %d", storage.ErrIndexOutOfRange, axis, s.Start, s.Stop, n)
	}
	return seq(s.Start, s.Stop), nil
}

// ILoc selects rows and columns by integer position. Stop bounds are
// excluded; positions past the table fail with ErrIndexOutOfRange.
func (t *Table) ILoc(rows, cols Span) (*Table, error) {
	rp, err := rows.resolve(t.NumRows(), "rows")
	if err != nil {
		return nil, fmt.Errorf("iloc: %w", err)
	}
	cp, err := cols.resolve(t.NumCols(), "columns")
	if err != nil {
		return nil, fmt.Errorf("iloc: %w", err)
	}
	return t.take(rp, cp), nil
}

// IAt returns the value at (row position, column position).
func (t *Table) IAt(row, col int) (storage.Value, error) {
	if row < 0 || row >= t.NumRows() {
		return storage.Missing(), fmt.Errorf("%w: row %d of %d", storage.ErrIndexOutOfRange, row, t.NumRows())
	}
	if col < 0 || col >= t.NumCols() {
		return storage.Missing(), fmt.Errorf("%w: column %d of %d", storage.ErrIndexOutOfRange, col, t.NumCols())
	}
	return t.cols[col].At(row), nil
}

// ============================================================================
// Filtering
// ============================================================================

// Filter keeps the rows where m is true, preserving labels and order.
func (t *Table) Filter(m Mask) (*Table, error) {
	rp, err := maskSpec{mask: m}.rowPositions(t)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	return t.take(rp, t.allColPositions()), nil
}

// Where keeps the rows where c holds.
func (t *Table) Where(c Cond) (*Table, error) { return t.Filter(c.Mask(t)) }
