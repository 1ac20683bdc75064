package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SimonWaldherr/tinyFrame/internal/engine"
	"github.com/SimonWaldherr/tinyFrame/internal/importer"
	"github.com/SimonWaldherr/tinyFrame/internal/storage"
)

// parseWhere turns a "column:op:value" clause into a condition on t.
//
// op is one of eq ne gt ge lt le (or ==, !=, >, >=, <, <=), "in" with
// values separated by '|', or "missing" / "present" without a value. The
// value is read according to the column type; "@other" compares against
// another column and "mean(col)" (any aggregate name) against an aggregate
// evaluated on the table being filtered.
func parseWhere(t *engine.Table, clause string) (engine.Cond, error) {
	parts := strings.SplitN(clause, ":", 3)
	if len(parts) < 2 || parts[0] == "" {
		return engine.Cond{}, fmt.Errorf("where %q: expected column:op:value", clause)
	}
	name, opName := parts[0], strings.ToLower(parts[1])
	col := engine.Col(name)
	s, err := t.Column(name)
	if err != nil {
		return engine.Cond{}, fmt.Errorf("where %q: %w", clause, err)
	}

	switch opName {
	case "missing", "isnull":
		return col.IsMissing(), nil
	case "present", "notnull":
		return col.NotMissing(), nil
	}
	if len(parts) != 3 {
		return engine.Cond{}, fmt.Errorf("where %q: operator %s needs a value", clause, opName)
	}
	raw := parts[2]

	if opName == "in" {
		items := strings.Split(raw, "|")
		vals := make([]any, len(items))
		for i, item := range items {
			v, err := parseLiteral(item, s.Type())
			if err != nil {
				return engine.Cond{}, fmt.Errorf("where %q: %w", clause, err)
			}
			vals[i] = v
		}
		return col.IsIn(vals...), nil
	}

	op, err := engine.ParseCmpOp(opName)
	if err != nil {
		return engine.Cond{}, fmt.Errorf("where %q: %w", clause, err)
	}
	if other, ok := strings.CutPrefix(raw, "@"); ok {
		return col.Compare(op, engine.Col(other)), nil
	}
	if ref, ok, err := parseAggRef(raw); ok || err != nil {
		if err != nil {
			return engine.Cond{}, fmt.Errorf("where %q: %w", clause, err)
		}
		return col.Compare(op, ref), nil
	}
	v, err := parseLiteral(raw, s.Type())
	if err != nil {
		return engine.Cond{}, fmt.Errorf("where %q: %w", clause, err)
	}
	return col.Compare(op, v), nil
}

// parseAggRef recognises "op(column)". ok is false when raw does not have
// that shape at all.
func parseAggRef(raw string) (ref engine.AggRef, ok bool, err error) {
	open := strings.IndexByte(raw, '(')
	if open <= 0 || !strings.HasSuffix(raw, ")") {
		return ref, false, nil
	}
	op, err := engine.ParseAggOp(raw[:open])
	if err != nil {
		return ref, false, nil
	}
	name := raw[open+1 : len(raw)-1]
	if name == "" {
		return ref, true, fmt.Errorf("%s() needs a column", op)
	}
	return engine.AggOf(name, op), true, nil
}

// parseLiteral reads raw as a value of the column type so that "60"
// compares numerically against a number column and as text against a text
// column.
func parseLiteral(raw string, typ storage.ColType) (storage.Value, error) {
	switch typ {
	case storage.IntType:
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return storage.Int(i), nil
		}
		fallthrough
	case storage.FloatType:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return storage.Value{}, fmt.Errorf("%w: %q is not a number", storage.ErrType, raw)
		}
		return storage.Float(f), nil
	case storage.BoolType:
		b, err := importer.ParseBool(raw)
		if err != nil {
			return storage.Value{}, fmt.Errorf("%w: %q is not a boolean", storage.ErrType, raw)
		}
		return storage.Bool(b), nil
	}
	return storage.Text(raw), nil
}
