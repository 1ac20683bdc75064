package storage

import (
	"fmt"
	"math"
	"strconv"
)

// Kind tags the payload carried by a Value.
type Kind uint8

const (
	KindMissing Kind = iota
	KindInt
	KindFloat
	KindText
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Value is a single cell. The zero Value is missing.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// Missing returns the missing marker.
func Missing() Value { return Value{} }

// Int wraps an integer.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float wraps a float. NaN is treated as missing.
func Float(v float64) Value {
	if math.IsNaN(v) {
		return Value{}
	}
	return Value{kind: KindFloat, f: v}
}

// Text wraps a string. The empty string is a value, not a missing marker.
func Text(v string) Value { return Value{kind: KindText, s: v} }

// Bool wraps a boolean.
func Bool(v bool) Value {
	if v {
		return Value{kind: KindBool, i: 1}
	}
	return Value{kind: KindBool}
}

// ValueOf converts a Go scalar into a Value. nil becomes missing.
//
//nolint:gocyclo // one case per supported Go type.
func ValueOf(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Missing(), nil
	case Value:
		return v, nil
	case int:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint:
		return Int(int64(v)), nil
	case uint8:
		return Int(int64(v)), nil
	case uint16:
		return Int(int64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case uint64:
		if v > math.MaxInt64 {
			return Float(float64(v)), nil
		}
		return Int(int64(v)), nil
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	case string:
		return Text(v), nil
	case []byte:
		return Text(string(v)), nil
	case bool:
		return Bool(v), nil
	}
	return Missing(), fmt.Errorf("%w: unsupported cell type %T", ErrType, x)
}

// MustValue is ValueOf for literals known to be valid; it panics otherwise.
func MustValue(x any) Value {
	v, err := ValueOf(x)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// AsFloat returns the numeric payload as float64.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// Int returns the integer payload.
func (v Value) Int() (int64, bool) {
	if v.kind == KindInt {
		return v.i, true
	}
	return 0, false
}

// Text returns the string payload.
func (v Value) Text() (string, bool) {
	if v.kind == KindText {
		return v.s, true
	}
	return "", false
}

// Bool returns the boolean payload.
func (v Value) Bool() (bool, bool) {
	if v.kind == KindBool {
		return v.i == 1, true
	}
	return false, false
}

// Any unwraps the payload: nil, int64, float64, string or bool.
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	case KindBool:
		return v.i == 1
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindText:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.i == 1)
	}
	return "NaN"
}

// Key returns a comparable form of v for use as a map key. Integral floats
// collapse onto the matching int so that 2 and 2.0 address the same label.
func (v Value) Key() Value {
	if v.kind == KindFloat && v.f == math.Trunc(v.f) && math.Abs(v.f) < 1<<53 {
		return Int(int64(v.f))
	}
	return v
}

// Same reports whether two cells hold the same value. Unlike Compare, two
// missing cells are the same; this is the equality used for duplicates and
// grouping.
func Same(a, b Value) bool {
	return a.Key() == b.Key()
}

// Compare orders two non-missing values of compatible kinds: numbers with
// numbers, text with text, bool with bool.
func Compare(a, b Value) (int, error) {
	if a.IsMissing() || b.IsMissing() {
		return 0, fmt.Errorf("%w: cannot compare missing value", ErrType)
	}
	if af, ok := a.AsFloat(); ok {
		bf, ok := b.AsFloat()
		if !ok {
			return 0, fmt.Errorf("%w: incomparable %s and %s", ErrType, a.kind, b.kind)
		}
		if a.kind == KindInt && b.kind == KindInt {
			return cmp3(a.i < b.i, a.i > b.i), nil
		}
		return cmp3(af < bf, af > bf), nil
	}
	if a.kind != b.kind {
		return 0, fmt.Errorf("%w: incomparable %s and %s", ErrType, a.kind, b.kind)
	}
	switch a.kind {
	case KindText:
		return cmp3(a.s < b.s, a.s > b.s), nil
	case KindBool:
		return cmp3(a.i < b.i, a.i > b.i), nil
	}
	return 0, fmt.Errorf("%w: incomparable %s", ErrType, a.kind)
}

// CompareForOrder orders values for sorting: missing sorts after every
// value, incomparable pairs keep their order.
func CompareForOrder(a, b Value) int {
	switch {
	case a.IsMissing() && b.IsMissing():
		return 0
	case a.IsMissing():
		return 1
	case b.IsMissing():
		return -1
	}
	c, err := Compare(a, b)
	if err != nil {
		return 0
	}
	return c
}

func cmp3(less, greater bool) int {
	if less {
		return -1
	}
	if greater {
		return 1
	}
	return 0
}
