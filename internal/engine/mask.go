package engine

import (
	"fmt"
	"strings"

	"github.com/SimonWaldherr/tinyFrame/internal/storage"
)

// Mask is a per-row boolean sequence used to filter a table. A Mask built
// from an invalid comparison carries the error; combining it propagates the
// error to the final Filter.
type Mask struct {
	bits []bool
	err  error
}

// NewMask wraps a copy of bits.
func NewMask(bits []bool) Mask { return Mask{bits: append([]bool(nil), bits...)} }

func maskErr(err error) Mask { return Mask{err: err} }

func filled(n int, v bool) Mask {
	bits := make([]bool, n)
	if v {
		for i := range bits {
			bits[i] = true
		}
	}
	return Mask{bits: bits}
}

func (m Mask) Err() error { return m.err }
func (m Mask) Len() int   { return len(m.bits) }

// At reports the bit for row i.
func (m Mask) At(i int) bool { return m.bits[i] }

// Bits returns a copy of the booleans.
func (m Mask) Bits() []bool { return append([]bool(nil), m.bits...) }

// Count returns the number of true rows.
func (m Mask) Count() int {
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}

// And combines two masks elementwise.
func (m Mask) And(o Mask) Mask { return m.combine(o, "and", func(a, b bool) bool { return a && b }) }

// Or combines two masks elementwise.
func (m Mask) Or(o Mask) Mask { return m.combine(o, "or", func(a, b bool) bool { return a || b }) }

// Xor combines two masks elementwise.
func (m Mask) Xor(o Mask) Mask { return m.combine(o, "xor", func(a, b bool) bool { return a != b }) }

// Not inverts every bit.
func (m Mask) Not() Mask {
	if m.err != nil {
		return m
	}
	out := make([]bool, len(m.bits))
	for i, b := range m.bits {
		out[i] = !b
	}
	return Mask{bits: out}
}

func (m Mask) combine(o Mask, op string, f func(a, b bool) bool) Mask {
	if m.err != nil {
		return m
	}
	if o.err != nil {
		return o
	}
	if len(m.bits) != len(o.bits) {
		return maskErr(fmt.Errorf("%w: %s of masks with %d and %d rows", storage.ErrShapeMismatch, op, len(m.bits), len(o.bits)))
	}
	out := make([]bool, len(m.bits))
	for i := range m.bits {
		out[i] = f(m.bits[i], o.bits[i])
	}
	return Mask{bits: out}
}

func (m Mask) positions() []int {
	out := make([]int, 0, len(m.bits))
	for i, b := range m.bits {
		if b {
			out = append(out, i)
		}
	}
	return out
}

// ============================================================================
// Comparisons
// ============================================================================

// CmpOp is an atomic comparison operator.
type CmpOp int

const (
	OpEq CmpOp = iota
	OpNe
	OpGt
	OpGe
	OpLt
	OpLe
)

var cmpOpNames = [...]string{"==", "!=", ">", ">=", "<", "<="}

func (op CmpOp) String() string {
	if int(op) < len(cmpOpNames) {
		return cmpOpNames[op]
	}
	return fmt.Sprintf("CmpOp(%d)", int(op))
}

// ParseCmpOp accepts symbolic (==, !=, >, >=, <, <=, =) and mnemonic
// (eq, ne, gt, ge, lt, le) operator names.
func ParseCmpOp(s string) (CmpOp, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "==", "=", "eq":
		return OpEq, nil
	case "!=", "<>", "ne":
		return OpNe, nil
	case ">", "gt":
		return OpGt, nil
	case ">=", "ge":
		return OpGe, nil
	case "<", "lt":
		return OpLt, nil
	case "<=", "le":
		return OpLe, nil
	}
	return OpEq, fmt.Errorf("unknown comparison operator %q", s)
}

func (op CmpOp) ordering() bool { return op >= OpGt }

func (op CmpOp) holds(c int) bool {
	switch op {
	case OpEq:
		return c == 0
	case OpNe:
		return c != 0
	case OpGt:
		return c > 0
	case OpGe:
		return c >= 0
	case OpLt:
		return c < 0
	case OpLe:
		return c <= 0
	}
	return false
}

// comparable reports whether a cell of type t can be ordered against v.
func comparableWith(t storage.ColType, v storage.Value) bool {
	switch v.Kind() {
	case storage.KindInt, storage.KindFloat:
		return t.IsNumeric()
	case storage.KindText:
		return t == storage.TextType
	case storage.KindBool:
		return t == storage.BoolType
	}
	return false
}

// Compare tests every cell against a literal. A missing cell never matches,
// except under OpNe. Ordering against an incompatible literal is a type
// error; equality against one simply never holds.
func (s *Series) Compare(op CmpOp, x any) Mask {
	lit, err := storage.ValueOf(x)
	if err != nil {
		return maskErr(err)
	}
	n := s.Len()
	if lit.IsMissing() || !comparableWith(s.Type(), lit) {
		if op.ordering() {
			return maskErr(fmt.Errorf("%w: %q (%s) %s %v", storage.ErrType, s.Name(), s.Type(), op, lit.Kind()))
		}
		return filled(n, op == OpNe)
	}
	bits := make([]bool, n)
	for i := 0; i < n; i++ {
		v := s.col.At(i)
		if v.IsMissing() {
			bits[i] = op == OpNe
			continue
		}
		c, err := storage.Compare(v, lit)
		if err != nil {
			return maskErr(err)
		}
		bits[i] = op.holds(c)
	}
	return Mask{bits: bits}
}

// CompareSeries tests two equal-length series row by row.
func (s *Series) CompareSeries(op CmpOp, o *Series) Mask {
	if s.Len() != o.Len() {
		return maskErr(fmt.Errorf("%w: comparing %d rows with %d", storage.ErrShapeMismatch, s.Len(), o.Len()))
	}
	numeric := s.Type().IsNumeric() && o.Type().IsNumeric()
	if !numeric && s.Type() != o.Type() {
		if op.ordering() {
			return maskErr(fmt.Errorf("%w: %q (%s) %s %q (%s)", storage.ErrType, s.Name(), s.Type(), op, o.Name(), o.Type()))
		}
		return filled(s.Len(), op == OpNe)
	}
	bits := make([]bool, s.Len())
	for i := range bits {
		a, b := s.col.At(i), o.col.At(i)
		if a.IsMissing() || b.IsMissing() {
			bits[i] = op == OpNe
			continue
		}
		c, err := storage.Compare(a, b)
		if err != nil {
			return maskErr(err)
		}
		bits[i] = op.holds(c)
	}
	return Mask{bits: bits}
}

func (s *Series) Eq(x any) Mask { return s.Compare(OpEq, x) }
func (s *Series) Ne(x any) Mask { return s.Compare(OpNe, x) }
func (s *Series) Gt(x any) Mask { return s.Compare(OpGt, x) }
func (s *Series) Ge(x any) Mask { return s.Compare(OpGe, x) }
func (s *Series) Lt(x any) Mask { return s.Compare(OpLt, x) }
func (s *Series) Le(x any) Mask { return s.Compare(OpLe, x) }

// IsIn is true where the cell equals any of xs.
func (s *Series) IsIn(xs ...any) Mask {
	m := filled(s.Len(), false)
	for _, x := range xs {
		m = m.Or(s.Eq(x))
	}
	return m
}

// IsMissing is true where the cell is missing.
func (s *Series) IsMissing() Mask {
	bits := make([]bool, s.Len())
	for i := range bits {
		bits[i] = s.col.At(i).IsMissing()
	}
	return Mask{bits: bits}
}

// NotMissing is true where the cell holds a value.
func (s *Series) NotMissing() Mask { return s.IsMissing().Not() }
