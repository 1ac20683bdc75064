package importer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SimonWaldherr/tinyFrame/internal/engine"
	"github.com/SimonWaldherr/tinyFrame/internal/storage"
)

// ============================================================================
// Type Inference - Detect column types from sampled text
// ============================================================================

// inferColumnType picks the narrowest type covering every sampled value:
// BOOL, INT, FLOAT (ints and floats mixed) or TEXT. Boolean words among
// other text are text, and inf/nan spellings count as numbers only in an
// otherwise numeric column. Text mixed with numbers, or numbers mixed with
// booleans, is heterogeneous and reported as an error.
func inferColumnType(sample []string, opts *Options) (storage.ColType, error) {
	if !opts.TypeInference {
		return storage.TextType, nil
	}
	seen := map[storage.ColType]int{}
	floatWords := 0
	for _, val := range sample {
		if isNullValue(val, opts.NullLiterals) {
			continue
		}
		val = strings.TrimSpace(val)
		if isFloatWord(val) {
			floatWords++
			continue
		}
		seen[detectValueType(val)]++
	}
	if floatWords > 0 {
		if seen[storage.IntType] > 0 || seen[storage.FloatType] > 0 {
			seen[storage.FloatType] += floatWords
		} else {
			seen[storage.TextType] += floatWords
		}
	}
	if seen[storage.TextType] > 0 && seen[storage.BoolType] > 0 {
		seen[storage.TextType] += seen[storage.BoolType]
		delete(seen, storage.BoolType)
	}
	switch {
	case len(seen) == 0:
		return storage.TextType, nil
	case len(seen) == 1:
		for t := range seen {
			return t, nil
		}
	case len(seen) == 2 && seen[storage.IntType] > 0 && seen[storage.FloatType] > 0:
		return storage.FloatType, nil
	}
	return storage.TextType, fmt.Errorf("heterogeneous values (%s)", describeVotes(seen))
}

// isFloatWord reports the non-numeric words strconv.ParseFloat accepts.
func isFloatWord(val string) bool {
	switch strings.ToLower(strings.TrimLeft(val, "+-")) {
	case "inf", "infinity", "nan":
		return true
	}
	return false
}

func describeVotes(seen map[storage.ColType]int) string {
	var parts []string
	for _, t := range []storage.ColType{storage.IntType, storage.FloatType, storage.BoolType, storage.TextType} {
		if n := seen[t]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, t))
		}
	}
	return strings.Join(parts, ", ")
}

// detectValueType returns the most specific type a single value parses as.
func detectValueType(val string) storage.ColType {
	switch strings.ToLower(val) {
	case "true", "false", "yes", "no":
		return storage.BoolType
	}
	if _, err := strconv.ParseInt(val, 10, 64); err == nil {
		return storage.IntType
	}
	if _, err := strconv.ParseFloat(val, 64); err == nil {
		return storage.FloatType
	}
	return storage.TextType
}

// isNullValue checks if a value should be read as missing.
func isNullValue(val string, nullLiterals []string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(val))
	for _, nl := range nullLiterals {
		if trimmed == strings.ToLower(strings.TrimSpace(nl)) {
			return true
		}
	}
	return false
}

// convertValue parses a text cell into a value of the column type.
func convertValue(val string, colType storage.ColType, nullLiterals []string) (storage.Value, error) {
	if isNullValue(val, nullLiterals) {
		return storage.Missing(), nil
	}
	trimmed := strings.TrimSpace(val)
	switch colType {
	case storage.BoolType:
		b, err := ParseBool(trimmed)
		return storage.Bool(b), err
	case storage.IntType:
		i, err := strconv.ParseInt(trimmed, 10, 64)
		return storage.Int(i), err
	case storage.FloatType:
		f, err := strconv.ParseFloat(trimmed, 64)
		return storage.Float(f), err
	default:
		return storage.Text(val), nil
	}
}

// ParseBool reads the boolean spellings the loaders accept: true/false and
// yes/no in any case.
func ParseBool(val string) (bool, error) {
	switch strings.ToLower(val) {
	case "true", "yes":
		return true, nil
	case "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", val)
}

// ============================================================================
// Table building
// ============================================================================

// tableFromRecords types and converts text records column by column. Short
// records are padded with missing values.
func tableFromRecords(names []string, records [][]string, opts *Options, res *Result) (*engine.Table, error) {
	cols := make([]*storage.Column, len(names))
	for c, name := range names {
		raw := make([]string, len(records))
		for r, rec := range records {
			if c < len(rec) {
				raw[r] = rec[c]
			}
		}
		col, err := textColumn(name, raw, opts, res)
		if err != nil {
			return nil, err
		}
		cols[c] = col
	}
	t, err := engine.New(cols...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSource, err)
	}
	return t, nil
}

func textColumn(name string, raw []string, opts *Options, res *Result) (*storage.Column, error) {
	sample := raw
	if len(sample) > opts.SampleRecords {
		sample = sample[:opts.SampleRecords]
	}
	typ, err := inferColumnType(sample, opts)
	if err == nil {
		var cells []storage.Value
		if cells, err = convertAll(raw, typ, opts.NullLiterals); err == nil {
			return storage.NewTypedColumn(name, typ, cells)
		}
	}
	if !opts.MixedAsText {
		return nil, fmt.Errorf("%w: column %q: %w", storage.ErrSource, name, err)
	}
	res.Errors = append(res.Errors, fmt.Sprintf("column %q: %v; loaded as TEXT", name, err))
	cells, _ := convertAll(raw, storage.TextType, opts.NullLiterals)
	return storage.NewTypedColumn(name, storage.TextType, cells)
}

// convertAll converts every cell, failing on the first value that does not
// parse as typ. Values past the inference sample can fail here.
func convertAll(raw []string, typ storage.ColType, nullLiterals []string) ([]storage.Value, error) {
	cells := make([]storage.Value, len(raw))
	for r, val := range raw {
		v, err := convertValue(val, typ, nullLiterals)
		if err != nil {
			return nil, fmt.Errorf("row %d: %q is not %s", r+1, val, typ)
		}
		cells[r] = v
	}
	return cells, nil
}

// tableFromValues builds a table from already typed Go values, as decoded
// from JSON, YAML or a database driver. rows[r][c] belongs to names[c].
func tableFromValues(names []string, rows [][]any, opts *Options, res *Result) (*engine.Table, error) {
	cols := make([]*storage.Column, len(names))
	for c, name := range names {
		cells := make([]storage.Value, len(rows))
		for r, row := range rows {
			var x any
			if c < len(row) {
				x = row[c]
			}
			v, err := cellOf(x)
			if err != nil {
				return nil, fmt.Errorf("%w: column %q row %d: %w", storage.ErrSource, name, r+1, err)
			}
			cells[r] = v
		}
		col, err := storage.NewColumn(name, cells)
		if err != nil {
			if !opts.MixedAsText {
				return nil, fmt.Errorf("%w: %w", storage.ErrSource, err)
			}
			res.Errors = append(res.Errors, fmt.Sprintf("column %q: mixed values loaded as TEXT", name))
			col = stringify(name, cells)
		}
		cols[c] = col
	}
	t, err := engine.New(cols...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSource, err)
	}
	return t, nil
}

func stringify(name string, cells []storage.Value) *storage.Column {
	out := make([]storage.Value, len(cells))
	for i, v := range cells {
		if !v.IsMissing() {
			out[i] = storage.Text(v.String())
		}
	}
	c, _ := storage.NewTypedColumn(name, storage.TextType, out)
	return c
}

// cellOf converts a decoded value into a cell. Timestamps become RFC 3339
// text and nested objects or arrays become compact JSON text.
func cellOf(x any) (storage.Value, error) {
	switch v := x.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return storage.Int(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return storage.Missing(), err
		}
		return storage.Float(f), nil
	case time.Time:
		return storage.Text(v.Format(time.RFC3339)), nil
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return storage.Missing(), err
		}
		return storage.Text(string(b)), nil
	}
	return storage.ValueOf(x)
}
