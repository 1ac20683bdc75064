package engine

import (
	"fmt"
	"strings"
)

// Cond is a row predicate built from column comparisons. It is evaluated
// against a table into a Mask, so the same Cond can filter several tables.
//
//	c := engine.Col("gender").Eq("female").And(engine.Col("mark").Gt(engine.AggOf("mark", engine.AggMean)))
//	out, err := t.Where(c)
type Cond struct {
	eval func(t *Table) Mask
	desc string
}

// Mask evaluates the condition for every row of t.
func (c Cond) Mask(t *Table) Mask {
	if c.eval == nil {
		return filled(t.NumRows(), true)
	}
	return c.eval(t)
}

func (c Cond) String() string { return c.desc }

// And holds where both conditions hold.
func (c Cond) And(o Cond) Cond {
	return Cond{
		eval: func(t *Table) Mask { return c.Mask(t).And(o.Mask(t)) },
		desc: "(" + c.desc + " AND " + o.desc + ")",
	}
}

// Or holds where either condition holds.
func (c Cond) Or(o Cond) Cond {
	return Cond{
		eval: func(t *Table) Mask { return c.Mask(t).Or(o.Mask(t)) },
		desc: "(" + c.desc + " OR " + o.desc + ")",
	}
}

// Not inverts the condition.
func (c Cond) Not() Cond {
	return Cond{
		eval: func(t *Table) Mask { return c.Mask(t).Not() },
		desc: "NOT " + c.desc,
	}
}

// AllOf holds where every condition holds. With no conditions it is always
// true.
func AllOf(conds ...Cond) Cond { return fold(conds, " AND ", Mask.And, true) }

// AnyOf holds where at least one condition holds. With no conditions it is
// always false.
func AnyOf(conds ...Cond) Cond { return fold(conds, " OR ", Mask.Or, false) }

func fold(conds []Cond, sep string, f func(Mask, Mask) Mask, empty bool) Cond {
	descs := make([]string, len(conds))
	for i, c := range conds {
		descs[i] = c.desc
	}
	return Cond{
		eval: func(t *Table) Mask {
			m := filled(t.NumRows(), empty)
			for i, c := range conds {
				if i == 0 {
					m = c.Mask(t)
					continue
				}
				m = f(m, c.Mask(t))
			}
			return m
		},
		desc: "(" + strings.Join(descs, sep) + ")",
	}
}

// ColRef names a column inside a Cond.
type ColRef struct{ name string }

// Col references a column by name.
func Col(name string) ColRef { return ColRef{name: name} }

// AggRef is an operand resolved to an aggregate of a column at evaluation
// time, e.g. the mean of the table being filtered.
type AggRef struct {
	name string
	op   AggOp
}

// AggOf references op applied to the named column.
func AggOf(name string, op AggOp) AggRef { return AggRef{name: name, op: op} }

// MeanOf references the mean of the named column.
func MeanOf(name string) AggRef { return AggOf(name, AggMean) }

func (a AggRef) String() string { return fmt.Sprintf("%s(%s)", a.op, a.name) }

// Compare builds a comparison against x, which may be a literal, another
// ColRef or an AggRef.
func (r ColRef) Compare(op CmpOp, x any) Cond {
	return Cond{
		eval: func(t *Table) Mask {
			s, err := t.Column(r.name)
			if err != nil {
				return maskErr(err)
			}
			switch rhs := x.(type) {
			case ColRef:
				o, err := t.Column(rhs.name)
				if err != nil {
					return maskErr(err)
				}
				return s.CompareSeries(op, o)
			case AggRef:
				o, err := t.Column(rhs.name)
				if err != nil {
					return maskErr(err)
				}
				v, err := o.Aggregate(rhs.op)
				if err != nil {
					return maskErr(err)
				}
				return s.Compare(op, v)
			}
			return s.Compare(op, x)
		},
		desc: fmt.Sprintf("%s %s %v", r.name, op, x),
	}
}

func (r ColRef) String() string { return r.name }

func (r ColRef) Eq(x any) Cond { return r.Compare(OpEq, x) }
func (r ColRef) Ne(x any) Cond { return r.Compare(OpNe, x) }
func (r ColRef) Gt(x any) Cond { return r.Compare(OpGt, x) }
func (r ColRef) Ge(x any) Cond { return r.Compare(OpGe, x) }
func (r ColRef) Lt(x any) Cond { return r.Compare(OpLt, x) }
func (r ColRef) Le(x any) Cond { return r.Compare(OpLe, x) }

// IsIn holds where the column equals any of xs.
func (r ColRef) IsIn(xs ...any) Cond {
	return Cond{
		eval: func(t *Table) Mask {
			s, err := t.Column(r.name)
			if err != nil {
				return maskErr(err)
			}
			return s.IsIn(xs...)
		},
		desc: fmt.Sprintf("%s IN %v", r.name, xs),
	}
}

// IsMissing holds where the column is missing.
func (r ColRef) IsMissing() Cond {
	return Cond{
		eval: func(t *Table) Mask {
			s, err := t.Column(r.name)
			if err != nil {
				return maskErr(err)
			}
			return s.IsMissing()
		},
		desc: r.name + " IS MISSING",
	}
}

// NotMissing holds where the column has a value.
func (r ColRef) NotMissing() Cond {
	c := r.IsMissing().Not()
	c.desc = r.name + " IS NOT MISSING"
	return c
}
