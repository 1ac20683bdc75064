package engine

import (
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/SimonWaldherr/tinyFrame/internal/storage"
)

// ColumnSummary holds descriptive statistics of one numeric column. Std is
// NaN with fewer than two values; every statistic but Count is NaN for a
// column without present values.
type ColumnSummary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// DescribeLabels are the row labels of the table returned by Describe.
var DescribeLabels = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

func (s ColumnSummary) stats() []float64 {
	return []float64{float64(s.Count), s.Mean, s.Std, s.Min, s.Q25, s.Median, s.Q75, s.Max}
}

// Summaries computes a ColumnSummary for every INT and FLOAT column, in
// column order. Columns are scanned concurrently.
func (t *Table) Summaries() []ColumnSummary {
	var numeric []*storage.Column
	for _, c := range t.cols {
		if c.Type().IsNumeric() {
			numeric = append(numeric, c)
		}
	}
	out := make([]ColumnSummary, len(numeric))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range numeric {
		g.Go(func() error {
			out[i] = summarize(c)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func summarize(c *storage.Column) ColumnSummary {
	fs := floats(c.Present())
	sort.Float64s(fs)
	s := ColumnSummary{
		Column: c.Name(),
		Count:  len(fs),
		Mean:   mean(fs),
		Std:    stddev(fs),
		Min:    math.NaN(),
		Q25:    quantile(fs, 0.25),
		Median: quantile(fs, 0.5),
		Q75:    quantile(fs, 0.75),
		Max:    math.NaN(),
	}
	if len(fs) > 0 {
		s.Min, s.Max = fs[0], fs[len(fs)-1]
	}
	return s
}

// Describe returns count, mean, std, min, quartiles and max of every numeric
// column as a table labelled by DescribeLabels. Non-numeric columns are left
// out; undefined statistics are missing.
func (t *Table) Describe() (*Table, error) {
	sums := t.Summaries()
	cols := make([]*storage.Column, len(sums))
	for i, s := range sums {
		c, err := storage.NewColumn(s.Column, s.stats())
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	index := make([]storage.Value, len(DescribeLabels))
	for i, l := range DescribeLabels {
		index[i] = storage.Text(l)
	}
	return newTable(cols, index), nil
}
