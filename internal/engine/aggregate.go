package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/SimonWaldherr/tinyFrame/internal/storage"
)

// AggOp is a column reduction.
type AggOp int

const (
	AggMax AggOp = iota
	AggMin
	AggMean
	AggMedian
	AggSum
	AggStd
	AggCount
)

var aggOpNames = [...]string{"max", "min", "mean", "median", "sum", "std", "count"}

func (op AggOp) String() string {
	if int(op) < len(aggOpNames) {
		return aggOpNames[op]
	}
	return fmt.Sprintf("AggOp(%d)", int(op))
}

// ParseAggOp maps a name such as "mean" or "AVG" to an AggOp.
func ParseAggOp(s string) (AggOp, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "avg", "average":
		return AggMean, nil
	case "stddev":
		return AggStd, nil
	}
	for i, n := range aggOpNames {
		if n == name {
			return AggOp(i), nil
		}
	}
	return AggMax, fmt.Errorf("unknown aggregate %q", s)
}

// numeric reports whether the op needs arithmetic on the values.
func (op AggOp) numeric() bool {
	return op == AggMean || op == AggMedian || op == AggSum || op == AggStd
}

// Aggregate reduces one column to a scalar. Max and min work on any column
// type; mean, median, sum and std need a numeric column. A column without
// present values fails with ErrEmptyColumn whatever its type, except for
// count. An INT sum that overflows int64 is returned as a FLOAT sum.
func (t *Table) Aggregate(col string, op AggOp) (storage.Value, error) {
	p, err := t.ColIndex(col)
	if err != nil {
		return storage.Missing(), err
	}
	return aggregate(t.cols[p], op)
}

func aggregate(c *storage.Column, op AggOp) (storage.Value, error) {
	present := c.Present()
	if op == AggCount {
		return storage.Int(int64(len(present))), nil
	}
	if len(present) == 0 {
		return storage.Missing(), fmt.Errorf("%w: %s of %q", storage.ErrEmptyColumn, op, c.Name())
	}
	if op.numeric() && !c.Type().IsNumeric() {
		return storage.Missing(), fmt.Errorf("%w: %s of %s column %q", storage.ErrType, op, c.Type(), c.Name())
	}

	switch op {
	case AggMax, AggMin:
		best := present[0]
		for _, v := range present[1:] {
			cmp, err := storage.Compare(v, best)
			if err != nil {
				return storage.Missing(), err
			}
			if (op == AggMax && cmp > 0) || (op == AggMin && cmp < 0) {
				best = v
			}
		}
		return best, nil
	case AggSum:
		if c.Type() == storage.IntType {
			if sum, ok := sumInts(present); ok {
				return storage.Int(sum), nil
			}
		}
		return storage.Float(sumFloats(floats(present))), nil
	case AggMean:
		return storage.Float(mean(floats(present))), nil
	case AggMedian:
		fs := floats(present)
		sort.Float64s(fs)
		return storage.Float(quantile(fs, 0.5)), nil
	case AggStd:
		return storage.Float(stddev(floats(present))), nil
	}
	return storage.Missing(), fmt.Errorf("unsupported aggregate %s", op)
}

func floats(vs []storage.Value) []float64 {
	out := make([]float64, 0, len(vs))
	for _, v := range vs {
		if f, ok := v.AsFloat(); ok {
			out = append(out, f)
		}
	}
	return out
}

// sumInts adds INT values, reporting false on int64 overflow.
func sumInts(vs []storage.Value) (int64, bool) {
	var sum int64
	for _, v := range vs {
		i, _ := v.Int()
		next := sum + i
		if (i > 0 && next < sum) || (i < 0 && next > sum) {
			return 0, false
		}
		sum = next
	}
	return sum, true
}

func sumFloats(fs []float64) float64 {
	var s float64
	for _, f := range fs {
		s += f
	}
	return s
}

func mean(fs []float64) float64 {
	if len(fs) == 0 {
		return math.NaN()
	}
	return sumFloats(fs) / float64(len(fs))
}

// stddev is the sample standard deviation; NaN for fewer than two values.
func stddev(fs []float64) float64 {
	if len(fs) < 2 {
		return math.NaN()
	}
	m := mean(fs)
	var ss float64
	for _, f := range fs {
		d := f - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(fs)-1))
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// ============================================================================
// Group by
// ============================================================================

// Grouped is a table split by the distinct values of one key column.
type Grouped struct {
	t      *Table
	keys   []storage.Value
	groups [][]int
}

// GroupBy splits rows by the key column. Groups appear in the order their
// key is first seen; rows with a missing key are left out.
func (t *Table) GroupBy(key string) (*Grouped, error) {
	p, err := t.ColIndex(key)
	if err != nil {
		return nil, fmt.Errorf("group by: %w", err)
	}
	c := t.cols[p]
	g := &Grouped{t: t}
	slot := map[storage.Value]int{}
	for i := 0; i < c.Len(); i++ {
		v := c.At(i)
		if v.IsMissing() {
			continue
		}
		k := v.Key()
		s, ok := slot[k]
		if !ok {
			s = len(g.keys)
			slot[k] = s
			g.keys = append(g.keys, v)
			g.groups = append(g.groups, nil)
		}
		g.groups[s] = append(g.groups[s], i)
	}
	return g, nil
}

// Keys returns the group keys in order.
func (g *Grouped) Keys() []storage.Value { return append([]storage.Value(nil), g.keys...) }

// Size returns the row count of every group, labelled by key.
func (g *Grouped) Size() *Series {
	counts := make([]storage.Value, len(g.groups))
	for i, rows := range g.groups {
		counts[i] = storage.Int(int64(len(rows)))
	}
	c, _ := storage.NewTypedColumn("size", storage.IntType, counts)
	return newSeries(c, g.Keys())
}

// Aggregate reduces col within every group. A group with no present values
// yields missing rather than an error.
func (g *Grouped) Aggregate(col string, op AggOp) (*Series, error) {
	p, err := g.t.ColIndex(col)
	if err != nil {
		return nil, err
	}
	src := g.t.cols[p]
	out := make([]storage.Value, len(g.groups))
	for i, rows := range g.groups {
		v, err := aggregate(src.Take(rows), op)
		switch {
		case err == nil:
			out[i] = v
		case errors.Is(err, storage.ErrEmptyColumn):
			out[i] = storage.Missing()
		default:
			return nil, err
		}
	}
	c, err := storage.NewColumn(col, out)
	if err != nil {
		return nil, err
	}
	return newSeries(c, g.Keys()), nil
}
