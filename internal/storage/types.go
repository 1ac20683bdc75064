// Package storage provides the cell and column model for tinyFrame.
//
// What: A tagged Value per cell (missing, int, float, text, bool), typed
// Columns holding an immutable slice of Values, and the error kinds shared
// by every layer.
// How: Each Column is typed once at construction; the type is enforced by
// rejecting heterogeneous input instead of coercing it. Cells never change
// after construction, which lets derived tables share column storage.
// Why: Keeping values explicit (no interface{} cells) makes missing-value
// handling and type checks visible at every call site.
package storage

import (
	"fmt"
	"strings"
)

// ColType enumerates supported column data types.
type ColType int

const (
	// IntType holds 64-bit signed integers.
	IntType ColType = iota
	// FloatType holds 64-bit floats.
	FloatType
	// TextType holds UTF-8 strings.
	TextType
	// BoolType holds booleans.
	BoolType
)

var colTypeToString = map[ColType]string{
	IntType:   "INT",
	FloatType: "FLOAT",
	TextType:  "TEXT",
	BoolType:  "BOOL",
}

var stringToColType = map[string]ColType{
	"INT":     IntType,
	"INTEGER": IntType,
	"INT64":   IntType,
	"FLOAT":   FloatType,
	"FLOAT64": FloatType,
	"DOUBLE":  FloatType,
	"TEXT":    TextType,
	"STRING":  TextType,
	"BOOL":    BoolType,
	"BOOLEAN": BoolType,
}

func (t ColType) String() string {
	if s, ok := colTypeToString[t]; ok {
		return s
	}
	return fmt.Sprintf("ColType(%d)", int(t))
}

// IsNumeric reports whether the type supports arithmetic aggregation.
func (t ColType) IsNumeric() bool { return t == IntType || t == FloatType }

// ParseColType maps a type name (case-insensitive) to a ColType.
func ParseColType(s string) (ColType, error) {
	if t, ok := stringToColType[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return TextType, fmt.Errorf("%w: unknown column type %q", ErrType, s)
}

// kindType maps a non-missing value kind to the column type that stores it.
func kindType(k Kind) ColType {
	switch k {
	case KindInt:
		return IntType
	case KindFloat:
		return FloatType
	case KindBool:
		return BoolType
	default:
		return TextType
	}
}
