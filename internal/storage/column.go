package storage

import (
	"fmt"
)

// Column is a named, homogeneously typed sequence of cells. A Column is
// never modified after construction.
type Column struct {
	name  string
	typ   ColType
	cells []Value
}

// NewColumn builds a column from a Go slice, inferring its type once.
// Accepted inputs: []int, []int64, []float64, []string, []bool, []any and
// []Value. Mixing ints and floats yields a FLOAT column; any other mix is a
// type error. A column with no present values is TEXT.
//
//nolint:gocyclo // one case per supported slice type.
func NewColumn(name string, values any) (*Column, error) {
	var cells []Value
	switch vs := values.(type) {
	case []Value:
		cells = append([]Value(nil), vs...)
	case []any:
		cells = make([]Value, len(vs))
		for i, x := range vs {
			v, err := ValueOf(x)
			if err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", name, i, err)
			}
			cells[i] = v
		}
	case []int:
		cells = make([]Value, len(vs))
		for i, x := range vs {
			cells[i] = Int(int64(x))
		}
	case []int64:
		cells = make([]Value, len(vs))
		for i, x := range vs {
			cells[i] = Int(x)
		}
	case []float64:
		cells = make([]Value, len(vs))
		for i, x := range vs {
			cells[i] = Float(x)
		}
	case []string:
		cells = make([]Value, len(vs))
		for i, x := range vs {
			cells[i] = Text(x)
		}
	case []bool:
		cells = make([]Value, len(vs))
		for i, x := range vs {
			cells[i] = Bool(x)
		}
	default:
		return nil, fmt.Errorf("%w: column %q: unsupported values type %T", ErrType, name, values)
	}

	typ, err := InferType(cells)
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", name, err)
	}
	return newColumn(name, typ, cells), nil
}

// MustColumn is NewColumn for fixtures and literals; it panics on error.
func MustColumn(name string, values any) *Column {
	c, err := NewColumn(name, values)
	if err != nil {
		panic(err)
	}
	return c
}

// NewTypedColumn builds a column with a declared type. Each present cell must
// match the type; ints are accepted into FLOAT columns and widened.
func NewTypedColumn(name string, typ ColType, cells []Value) (*Column, error) {
	out := make([]Value, len(cells))
	for i, v := range cells {
		if v.IsMissing() {
			continue
		}
		k := kindType(v.Kind())
		switch {
		case k == typ:
			out[i] = v
		case k == IntType && typ == FloatType:
			f, _ := v.AsFloat()
			out[i] = Float(f)
		default:
			return nil, fmt.Errorf("%w: column %q row %d: %s value in %s column", ErrType, name, i, v.Kind(), typ)
		}
	}
	return &Column{name: name, typ: typ, cells: out}, nil
}

// InferType picks the narrowest type covering every present cell.
func InferType(cells []Value) (ColType, error) {
	seen := map[Kind]bool{}
	for _, v := range cells {
		if !v.IsMissing() {
			seen[v.Kind()] = true
		}
	}
	switch {
	case len(seen) == 0:
		return TextType, nil
	case len(seen) == 1:
		for k := range seen {
			return kindType(k), nil
		}
	case len(seen) == 2 && seen[KindInt] && seen[KindFloat]:
		return FloatType, nil
	}
	kinds := make([]string, 0, len(seen))
	for _, k := range []Kind{KindInt, KindFloat, KindText, KindBool} {
		if seen[k] {
			kinds = append(kinds, k.String())
		}
	}
	return TextType, fmt.Errorf("%w: heterogeneous values %v", ErrType, kinds)
}

// newColumn stores cells, widening ints when the column is FLOAT.
func newColumn(name string, typ ColType, cells []Value) *Column {
	if typ == FloatType {
		for i, v := range cells {
			if v.Kind() == KindInt {
				f, _ := v.AsFloat()
				cells[i] = Float(f)
			}
		}
	}
	return &Column{name: name, typ: typ, cells: cells}
}

func (c *Column) Name() string  { return c.name }
func (c *Column) Type() ColType { return c.typ }
func (c *Column) Len() int      { return len(c.cells) }

// At returns the cell at position i. The caller checks bounds.
func (c *Column) At(i int) Value { return c.cells[i] }

// Values returns a copy of the cells.
func (c *Column) Values() []Value { return append([]Value(nil), c.cells...) }

// Renamed returns a column sharing c's cells under another name.
func (c *Column) Renamed(name string) *Column {
	return &Column{name: name, typ: c.typ, cells: c.cells}
}

// Take returns a new column holding the cells at the given positions.
func (c *Column) Take(positions []int) *Column {
	cells := make([]Value, len(positions))
	for i, p := range positions {
		cells[i] = c.cells[p]
	}
	return &Column{name: c.name, typ: c.typ, cells: cells}
}

// MissingCount counts missing markers. Zero and "" are not missing.
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.cells {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// Present returns the non-missing cells in order.
func (c *Column) Present() []Value {
	out := make([]Value, 0, len(c.cells))
	for _, v := range c.cells {
		if !v.IsMissing() {
			out = append(out, v)
		}
	}
	return out
}
