package engine

import (
	"slices"
	"strconv"
	"strings"

	"github.com/SimonWaldherr/tinyFrame/internal/storage"
)

// CountMissing returns the number of missing cells per column, labelled by
// column name. Zero and the empty string are values, not missing.
func (t *Table) CountMissing() *Series {
	counts := make([]storage.Value, len(t.cols))
	labels := make([]storage.Value, len(t.cols))
	for i, c := range t.cols {
		counts[i] = storage.Int(int64(c.MissingCount()))
		labels[i] = storage.Text(c.Name())
	}
	c, _ := storage.NewTypedColumn("missing", storage.IntType, counts)
	return newSeries(c, labels)
}

// Dtypes returns every column's type name, labelled by column name.
func (t *Table) Dtypes() *Series {
	names := make([]storage.Value, len(t.cols))
	labels := make([]storage.Value, len(t.cols))
	for i, c := range t.cols {
		names[i] = storage.Text(c.Type().String())
		labels[i] = storage.Text(c.Name())
	}
	c, _ := storage.NewTypedColumn("dtype", storage.TextType, names)
	return newSeries(c, labels)
}

// ValueCounts counts the distinct present values of a column, most frequent
// first; ties keep first-encountered order.
func (t *Table) ValueCounts(col string) (*Series, error) {
	p, err := t.ColIndex(col)
	if err != nil {
		return nil, err
	}
	return valueCounts(t.cols[p]), nil
}

func valueCounts(c *storage.Column) *Series {
	type bucket struct {
		value storage.Value
		count int64
	}
	slot := map[storage.Value]int{}
	var buckets []bucket
	for _, v := range c.Present() {
		k := v.Key()
		if i, ok := slot[k]; ok {
			buckets[i].count++
			continue
		}
		slot[k] = len(buckets)
		buckets = append(buckets, bucket{value: v, count: 1})
	}
	slices.SortStableFunc(buckets, func(a, b bucket) int {
		switch {
		case a.count > b.count:
			return -1
		case a.count < b.count:
			return 1
		}
		return 0
	})
	labels := make([]storage.Value, len(buckets))
	counts := make([]storage.Value, len(buckets))
	for i, b := range buckets {
		labels[i] = b.value
		counts[i] = storage.Int(b.count)
	}
	out, _ := storage.NewTypedColumn("count", storage.IntType, counts)
	return newSeries(out, labels)
}

// Duplicated is true for every row whose full value tuple equals an earlier
// row's. Missing cells equal each other here.
func (t *Table) Duplicated() Mask {
	seen := make(map[string]bool, t.NumRows())
	bits := make([]bool, t.NumRows())
	for r := range bits {
		k := t.rowKey(r)
		bits[r] = seen[k]
		seen[k] = true
	}
	return Mask{bits: bits}
}

// CountDuplicateRows counts the rows Duplicated marks.
func (t *Table) CountDuplicateRows() int { return t.Duplicated().Count() }

// DropDuplicates keeps the first occurrence of every distinct row.
func (t *Table) DropDuplicates() *Table {
	return t.take(t.Duplicated().Not().positions(), t.allColPositions())
}

// rowKey encodes a row as a string with length-prefixed fields, so distinct
// tuples never collide.
func (t *Table) rowKey(r int) string {
	var b strings.Builder
	for _, c := range t.cols {
		k := c.At(r).Key()
		s := k.String()
		b.WriteByte(byte('0' + k.Kind()))
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	return b.String()
}
