package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewColumnInference checks type inference for each accepted slice.
func TestNewColumnInference(t *testing.T) {
	cases := []struct {
		name   string
		values any
		want   ColType
	}{
		{"ints", []int{1, 2}, IntType},
		{"int64s", []int64{1}, IntType},
		{"floats", []float64{1.5}, FloatType},
		{"strings", []string{"a", ""}, TextType},
		{"bools", []bool{true}, BoolType},
		{"mixed numbers", []any{1, 2.5, nil}, FloatType},
		{"all missing", []any{nil, nil}, TextType},
		{"empty", []string{}, TextType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewColumn("c", tc.values)
			require.NoError(t, err)
			assert.Equal(t, tc.want, c.Type())
		})
	}
}

// TestNewColumnWidensInts stores ints of a FLOAT column as floats.
func TestNewColumnWidensInts(t *testing.T) {
	c := MustColumn("x", []any{1, 2.5})
	assert.Equal(t, KindFloat, c.At(0).Kind())
	assert.Equal(t, "1", c.At(0).String())
}

// TestNewColumnRejectsHeterogeneous fails rather than coercing.
func TestNewColumnRejectsHeterogeneous(t *testing.T) {
	_, err := NewColumn("x", []any{1, "two"})
	assert.ErrorIs(t, err, ErrType)

	_, err = NewColumn("x", []any{true, 1})
	assert.ErrorIs(t, err, ErrType)

	_, err = NewColumn("x", map[string]int{})
	assert.ErrorIs(t, err, ErrType)
}

// TestNewTypedColumn enforces the declared type.
func TestNewTypedColumn(t *testing.T) {
	c, err := NewTypedColumn("f", FloatType, []Value{Int(1), Missing(), Float(2)})
	require.NoError(t, err)
	assert.Equal(t, KindFloat, c.At(0).Kind())
	assert.True(t, c.At(1).IsMissing())

	_, err = NewTypedColumn("i", IntType, []Value{Text("1")})
	assert.ErrorIs(t, err, ErrType)
}

// TestColumnIsImmutable checks that Values hands out a copy.
func TestColumnIsImmutable(t *testing.T) {
	src := []Value{Int(1), Int(2)}
	c := MustColumn("x", src)
	src[0] = Int(99)
	vs := c.Values()
	vs[1] = Int(42)
	assert.Equal(t, "1", c.At(0).String())
	assert.Equal(t, "2", c.At(1).String())
}

// TestColumnHelpers covers Take, MissingCount, Present and Renamed.
func TestColumnHelpers(t *testing.T) {
	c := MustColumn("x", []any{0, nil, 3, nil})
	assert.Equal(t, 2, c.MissingCount())
	assert.Len(t, c.Present(), 2)

	taken := c.Take([]int{2, 0})
	assert.Equal(t, []Value{Int(3), Int(0)}, taken.Values())
	assert.Equal(t, "x", taken.Name())

	r := c.Renamed("y")
	assert.Equal(t, "y", r.Name())
	assert.Equal(t, c.Len(), r.Len())
}
