package engine

import (
	"fmt"

	"github.com/SimonWaldherr/tinyFrame/internal/storage"
)

// Series is a one-dimensional labelled sequence: a single column together
// with the row labels of the table it came from. A Series has no column
// selection; use Table.Select for a one-column table.
type Series struct {
	col   *storage.Column
	index []storage.Value
}

// NewSeries builds a series labelled 0..n-1.
func NewSeries(name string, values any) (*Series, error) {
	c, err := storage.NewColumn(name, values)
	if err != nil {
		return nil, err
	}
	return &Series{col: c, index: rangeIndex(c.Len())}, nil
}

func newSeries(c *storage.Column, index []storage.Value) *Series {
	return &Series{col: c, index: index}
}

func (s *Series) Name() string            { return s.col.Name() }
func (s *Series) Type() storage.ColType   { return s.col.Type() }
func (s *Series) Len() int                { return s.col.Len() }
func (s *Series) Values() []storage.Value { return s.col.Values() }

// Index returns a copy of the row labels.
func (s *Series) Index() []storage.Value { return append([]storage.Value(nil), s.index...) }

// At returns the value at a position.
func (s *Series) At(pos int) (storage.Value, error) {
	if pos < 0 || pos >= s.Len() {
		return storage.Missing(), fmt.Errorf("%w: position %d of %d", storage.ErrIndexOutOfRange, pos, s.Len())
	}
	return s.col.At(pos), nil
}

// Loc returns the value at the first row carrying label.
func (s *Series) Loc(label any) (storage.Value, error) {
	l, err := storage.ValueOf(label)
	if err != nil {
		return storage.Missing(), err
	}
	for i, x := range s.index {
		if storage.Same(x, l) {
			return s.col.At(i), nil
		}
	}
	return storage.Missing(), fmt.Errorf("%w: row %v", storage.ErrLabelNotFound, l)
}

// Head returns the first n entries.
func (s *Series) Head(n int) *Series {
	n = clamp(n, 0, s.Len())
	pos := seq(0, n)
	return newSeries(s.col.Take(pos), s.index[:n])
}

// Unique returns distinct present values in first-encountered order.
func (s *Series) Unique() []storage.Value {
	seen := map[storage.Value]bool{}
	var out []storage.Value
	for _, v := range s.col.Present() {
		if k := v.Key(); !seen[k] {
			seen[k] = true
			out = append(out, v)
		}
	}
	return out
}

// NUnique counts distinct present values.
func (s *Series) NUnique() int { return len(s.Unique()) }

// MissingCount counts missing cells.
func (s *Series) MissingCount() int { return s.col.MissingCount() }

// ValueCounts maps each distinct present value to its number of occurrences,
// most frequent first; ties keep first-encountered order.
func (s *Series) ValueCounts() *Series { return valueCounts(s.col) }

// Aggregate reduces the series to a scalar.
func (s *Series) Aggregate(op AggOp) (storage.Value, error) { return aggregate(s.col, op) }

func (s *Series) Max() (storage.Value, error) { return s.Aggregate(AggMax) }
func (s *Series) Min() (storage.Value, error) { return s.Aggregate(AggMin) }
func (s *Series) Sum() (storage.Value, error) { return s.Aggregate(AggSum) }

// Mean returns the arithmetic mean of the present values.
func (s *Series) Mean() (float64, error) { return s.aggFloat(AggMean) }

// Median returns the middle of the present values.
func (s *Series) Median() (float64, error) { return s.aggFloat(AggMedian) }

// Std returns the sample standard deviation (n-1 denominator).
func (s *Series) Std() (float64, error) { return s.aggFloat(AggStd) }

func (s *Series) aggFloat(op AggOp) (float64, error) {
	v, err := s.Aggregate(op)
	if err != nil {
		return 0, err
	}
	f, ok := v.AsFloat()
	if !ok {
		return 0, fmt.Errorf("%w: %s of %q is undefined", storage.ErrEmptyColumn, op, s.Name())
	}
	return f, nil
}

func (s *Series) String() string { return renderSeries(s, DefaultMaxRows) }
