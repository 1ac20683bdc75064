package importer

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// JSON Import
// ============================================================================

// ReadJSON loads JSON data. Supported shapes:
//   - Array of objects: [{"id": 1, "name": "Alice"}, ...]
//   - JSON Lines: {"id": 1, "name": "Alice"}\n{"id": 2, "name": "Bob"}
//   - Columnar object: {"id": [1, 2], "name": ["Alice", "Bob"]}
//
// Columns follow the order keys first appear in. Integral numbers load as
// INT, other numbers as FLOAT; null is missing.
func ReadJSON(ctx context.Context, src io.Reader, opts *Options) (res *Result, err error) {
	ctx, span := startSpan(ctx, "ReadJSON")
	defer func() { endSpan(span, res, err) }()

	o, err := prepare(opts)
	if err != nil {
		return nil, err
	}
	res = &Result{Format: "json", Encoding: "utf-8", HadHeader: true, Errors: make([]string, 0)}

	r, gz, err := maybeGzip(src)
	if err != nil {
		return nil, sourceErr("json", err)
	}
	res.Compressed = gz

	dec := json.NewDecoder(bufio.NewReader(r))
	dec.UseNumber()

	rs := newRecordSet()
	tok, err := dec.Token()
	if err != nil {
		return nil, sourceErr("json", fmt.Errorf("read JSON: %w", err))
	}
	switch tok {
	case json.Delim('['):
		for dec.More() {
			if len(rs.rows)%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			if err := expectDelim(dec, '{'); err != nil {
				return nil, sourceErr("json", fmt.Errorf("record %d: %w", len(rs.rows)+1, err))
			}
			if err := rs.addJSONObject(dec); err != nil {
				return nil, sourceErr("json", fmt.Errorf("record %d: %w", len(rs.rows)+1, err))
			}
		}
	case json.Delim('{'):
		if err := rs.addJSONObject(dec); err != nil {
			return nil, sourceErr("json", err)
		}
		if cols, ok := rs.columnar(); ok {
			o.Logger.Debug("json detection", slog.String("shape", "columnar"))
			return rs.finishColumnar(cols, o, res)
		}
		for {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			err := expectDelim(dec, '{')
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, sourceErr("json", fmt.Errorf("line record %d: %w", len(rs.rows)+1, err))
			}
			if err := rs.addJSONObject(dec); err != nil {
				return nil, sourceErr("json", fmt.Errorf("line record %d: %w", len(rs.rows)+1, err))
			}
		}
	default:
		return nil, sourceErr("json", fmt.Errorf("unsupported JSON: expected an array or object, got %v", tok))
	}
	if len(rs.rows) == 0 {
		return nil, sourceErr("json", errors.New("no records found"))
	}
	o.Logger.Debug("json detection", slog.String("shape", "records"), slog.Int("records", len(rs.rows)))

	t, err := tableFromValues(rs.names, rs.aligned(), o, res)
	if err != nil {
		return nil, err
	}
	return finish(res, t, o)
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// recordSet collects records keyed by column name, remembering the order in
// which names first appear.
type recordSet struct {
	names []string
	pos   map[string]int
	rows  []map[string]any
}

func newRecordSet() *recordSet { return &recordSet{pos: map[string]int{}} }

func (rs *recordSet) add(key string, val any, rec map[string]any) {
	if _, ok := rs.pos[key]; !ok {
		rs.pos[key] = len(rs.names)
		rs.names = append(rs.names, key)
	}
	rec[key] = val
}

// addJSONObject reads the members of an object whose '{' was consumed.
func (rs *recordSet) addJSONObject(dec *json.Decoder) error {
	rec := map[string]any{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("object key %v is not a string", tok)
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		rs.add(key, val, rec)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}
	rs.rows = append(rs.rows, rec)
	return nil
}

// columnar reports whether the set holds a single record whose values are
// all arrays, i.e. a column-oriented document.
func (rs *recordSet) columnar() ([][]any, bool) {
	if len(rs.rows) != 1 || len(rs.names) == 0 {
		return nil, false
	}
	cols := make([][]any, len(rs.names))
	for i, name := range rs.names {
		arr, ok := rs.rows[0][name].([]any)
		if !ok {
			return nil, false
		}
		cols[i] = arr
	}
	return cols, true
}

func (rs *recordSet) finishColumnar(cols [][]any, o *Options, res *Result) (*Result, error) {
	n := len(cols[0])
	for i, c := range cols {
		if len(c) != n {
			return nil, sourceErr(res.Format, fmt.Errorf("column %q has %d values, expected %d", rs.names[i], len(c), n))
		}
	}
	rows := make([][]any, n)
	for r := range rows {
		rows[r] = make([]any, len(cols))
		for c := range cols {
			rows[r][c] = cols[c][r]
		}
	}
	t, err := tableFromValues(rs.names, rows, o, res)
	if err != nil {
		return nil, err
	}
	return finish(res, t, o)
}

// aligned lays the records out in column order; absent keys are nil.
func (rs *recordSet) aligned() [][]any {
	out := make([][]any, len(rs.rows))
	for r, rec := range rs.rows {
		row := make([]any, len(rs.names))
		for c, name := range rs.names {
			row[c] = rec[name]
		}
		out[r] = row
	}
	return out
}

// ============================================================================
// YAML Import
// ============================================================================

// ReadYAML loads a YAML sequence of mappings, or a mapping of sequences
// (one per column). Mapping key order is preserved.
func ReadYAML(ctx context.Context, src io.Reader, opts *Options) (res *Result, err error) {
	ctx, span := startSpan(ctx, "ReadYAML")
	defer func() { endSpan(span, res, err) }()

	o, err := prepare(opts)
	if err != nil {
		return nil, err
	}
	res = &Result{Format: "yaml", Encoding: "utf-8", HadHeader: true, Errors: make([]string, 0)}

	var doc yaml.Node
	if err := yaml.NewDecoder(src).Decode(&doc); err != nil {
		return nil, sourceErr("yaml", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, sourceErr("yaml", errors.New("empty document"))
	}
	root := doc.Content[0]

	rs := newRecordSet()
	switch root.Kind {
	case yaml.SequenceNode:
		for i, item := range root.Content {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := rs.addYAMLMapping(item); err != nil {
				return nil, sourceErr("yaml", fmt.Errorf("record %d: %w", i+1, err))
			}
		}
	case yaml.MappingNode:
		if err := rs.addYAMLMapping(root); err != nil {
			return nil, sourceErr("yaml", err)
		}
		if cols, ok := rs.columnar(); ok {
			return rs.finishColumnar(cols, o, res)
		}
	default:
		return nil, sourceErr("yaml", fmt.Errorf("line %d: expected a sequence or mapping", root.Line))
	}
	if len(rs.rows) == 0 {
		return nil, sourceErr("yaml", errors.New("no records found"))
	}
	o.Logger.Debug("yaml detection", slog.Int("records", len(rs.rows)), slog.Int("columns", len(rs.names)))

	t, err := tableFromValues(rs.names, rs.aligned(), o, res)
	if err != nil {
		return nil, err
	}
	return finish(res, t, o)
}

func (rs *recordSet) addYAMLMapping(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", n.Line)
	}
	rec := map[string]any{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		var val any
		if err := n.Content[i+1].Decode(&val); err != nil {
			return fmt.Errorf("line %d: key %q: %w", n.Content[i+1].Line, key, err)
		}
		rs.add(key, normalizeYAML(val), rec)
	}
	rs.rows = append(rs.rows, rec)
	return nil
}

// normalizeYAML rewrites map[any]any, produced for non-string keys, into
// map[string]any so nested values can be rendered as JSON text.
func normalizeYAML(v any) any {
	switch x := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []any:
		for i := range x {
			x[i] = normalizeYAML(x[i])
		}
		return x
	}
	return v
}
