package engine

import (
	"fmt"
	"slices"

	"github.com/SimonWaldherr/tinyFrame/internal/storage"
)

// SortKey orders rows by one column.
type SortKey struct {
	Column     string
	Descending bool
}

// SortBy reorders rows by the given columns, all in the same direction.
// The sort is stable: rows that tie keep their original relative order.
func (t *Table) SortBy(cols []string, ascending bool) (*Table, error) {
	keys := make([]SortKey, len(cols))
	for i, c := range cols {
		keys[i] = SortKey{Column: c, Descending: !ascending}
	}
	return t.SortByKeys(keys...)
}

// SortByKeys reorders rows by several keys, each with its own direction.
// Missing values sort last in either direction.
func (t *Table) SortByKeys(keys ...SortKey) (*Table, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("sort: no sort keys")
	}
	cols := make([]*storage.Column, len(keys))
	for i, k := range keys {
		p, err := t.ColIndex(k.Column)
		if err != nil {
			return nil, fmt.Errorf("sort: %w", err)
		}
		cols[i] = t.cols[p]
	}
	perm := t.allRowPositions()
	slices.SortStableFunc(perm, func(a, b int) int {
		for i, c := range cols {
			if r := orderCells(c.At(a), c.At(b), keys[i].Descending); r != 0 {
				return r
			}
		}
		return 0
	})
	return t.take(perm, t.allColPositions()), nil
}

// SortIndex reorders rows by their labels.
func (t *Table) SortIndex(ascending bool) *Table {
	perm := t.allRowPositions()
	slices.SortStableFunc(perm, func(a, b int) int {
		return orderCells(t.index[a], t.index[b], !ascending)
	})
	return t.take(perm, t.allColPositions())
}

// orderCells compares for sorting, keeping missing values at the end
// regardless of direction.
func orderCells(a, b storage.Value, desc bool) int {
	if a.IsMissing() || b.IsMissing() {
		return storage.CompareForOrder(a, b)
	}
	c := storage.CompareForOrder(a, b)
	if desc {
		return -c
	}
	return c
}
