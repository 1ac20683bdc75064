// Package exporter writes tinyFrame tables as CSV, JSON, XML, Excel
// workbooks and text or Markdown grids. Missing values become empty CSV
// fields, JSON null, empty XML elements and empty cells.
package exporter

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/xuri/excelize/v2"

	"github.com/SimonWaldherr/tinyFrame/internal/engine"
	"github.com/SimonWaldherr/tinyFrame/internal/storage"
)

// Options controls exporter behavior.
type Options struct {
	PrettyJSON   bool
	CSVNoHeader  bool
	CSVDelimiter rune
	// IncludeIndex writes the row labels as a leading column named IndexName.
	IncludeIndex bool
	IndexName    string // default "index"
	// Sheet names the worksheet written by WriteExcel (default "Sheet1").
	Sheet string
}

func (o Options) indexName() string {
	if o.IndexName == "" {
		return "index"
	}
	return o.IndexName
}

// frame is a table unpacked into columns for row-wise writing.
type frame struct {
	names []string
	cols  [][]storage.Value
	rows  int
}

func unpack(t *engine.Table, opts Options) (*frame, error) {
	f := &frame{rows: t.NumRows()}
	if opts.IncludeIndex {
		f.names = append(f.names, opts.indexName())
		f.cols = append(f.cols, t.Index())
	}
	for _, name := range t.Columns() {
		s, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		f.names = append(f.names, name)
		f.cols = append(f.cols, s.Values())
	}
	return f, nil
}

func (f *frame) row(r int) []storage.Value {
	out := make([]storage.Value, len(f.cols))
	for c, col := range f.cols {
		out[c] = col[r]
	}
	return out
}

// valueToString formats a cell for text output. Integral floats keep a
// trailing ".0" so they read back as FLOAT.
func valueToString(v storage.Value) string {
	switch v.Kind() {
	case storage.KindMissing:
		return ""
	case storage.KindFloat:
		f, _ := v.AsFloat()
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !math.IsInf(f, 0) && !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		return s
	}
	return v.String()
}

// ============================================================================
// CSV
// ============================================================================

// WriteCSV writes the table as CSV to w. Column order is preserved.
func WriteCSV(w io.Writer, t *engine.Table, opts Options) error {
	f, err := unpack(t, opts)
	if err != nil {
		return err
	}
	csvw := csv.NewWriter(w)
	if opts.CSVDelimiter != 0 {
		csvw.Comma = opts.CSVDelimiter
	}
	if !opts.CSVNoHeader {
		if err := csvw.Write(f.names); err != nil {
			return err
		}
	}
	rec := make([]string, len(f.names))
	for r := 0; r < f.rows; r++ {
		for c, v := range f.row(r) {
			rec[c] = valueToString(v)
		}
		if err := csvw.Write(rec); err != nil {
			return err
		}
	}
	csvw.Flush()
	return csvw.Error()
}

// ============================================================================
// JSON
// ============================================================================

// WriteJSON writes the table as a JSON array of objects whose keys follow
// the column order.
func WriteJSON(w io.Writer, t *engine.Table, opts Options) error {
	f, err := unpack(t, opts)
	if err != nil {
		return err
	}
	keys := make([][]byte, len(f.names))
	for i, name := range f.names {
		if keys[i], err = json.Marshal(name); err != nil {
			return err
		}
	}

	bw := bufio.NewWriter(w)
	indent, sep := "", ","
	if opts.PrettyJSON {
		indent, sep = "\n  ", ", "
	}
	bw.WriteString("[")
	for r := 0; r < f.rows; r++ {
		if r > 0 {
			bw.WriteString(",")
		}
		bw.WriteString(indent + "{")
		for c, v := range f.row(r) {
			if c > 0 {
				bw.WriteString(sep)
			}
			bw.Write(keys[c])
			bw.WriteString(":")
			if opts.PrettyJSON {
				bw.WriteString(" ")
			}
			lit, err := jsonLiteral(v)
			if err != nil {
				return fmt.Errorf("row %d column %q: %w", r, f.names[c], err)
			}
			bw.Write(lit)
		}
		bw.WriteString("}")
	}
	if opts.PrettyJSON && f.rows > 0 {
		bw.WriteString("\n")
	}
	bw.WriteString("]\n")
	return bw.Flush()
}

func jsonLiteral(v storage.Value) ([]byte, error) {
	switch v.Kind() {
	case storage.KindMissing:
		return []byte("null"), nil
	case storage.KindFloat:
		f, _ := v.AsFloat()
		if math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %v has no JSON form", storage.ErrType, f)
		}
		return []byte(valueToString(v)), nil
	}
	return json.Marshal(v.Any())
}

// ============================================================================
// XML
// ============================================================================

type xmlField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmlRow struct {
	Fields []xmlField `xml:",any"`
}

type xmlRows struct {
	XMLName xml.Name `xml:"rows"`
	Rows    []xmlRow `xml:"row"`
}

// WriteXML writes the table as simple XML:
// <rows><row><col>value</col>...</row>...</rows>. Column names must be valid
// XML element names.
func WriteXML(w io.Writer, t *engine.Table, opts Options) error {
	f, err := unpack(t, opts)
	if err != nil {
		return err
	}
	xr := xmlRows{Rows: make([]xmlRow, 0, f.rows)}
	for r := 0; r < f.rows; r++ {
		row := xmlRow{Fields: make([]xmlField, 0, len(f.names))}
		for c, v := range f.row(r) {
			row.Fields = append(row.Fields, xmlField{XMLName: xml.Name{Local: f.names[c]}, Value: valueToString(v)})
		}
		xr.Rows = append(xr.Rows, row)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(xr); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// ============================================================================
// Excel
// ============================================================================

// WriteExcel writes the table to a single-sheet .xlsx workbook. Numbers and
// booleans are stored as typed cells; missing values leave the cell empty.
func WriteExcel(w io.Writer, t *engine.Table, opts Options) (err error) {
	f, err := unpack(t, opts)
	if err != nil {
		return err
	}
	sheet := opts.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}

	wb := excelize.NewFile()
	defer func() {
		if cerr := wb.Close(); err == nil {
			err = cerr
		}
	}()
	if sheet != "Sheet1" {
		if err := wb.SetSheetName("Sheet1", sheet); err != nil {
			return fmt.Errorf("sheet %q: %w", sheet, err)
		}
	}

	header := make([]any, len(f.names))
	for i, n := range f.names {
		header[i] = n
	}
	if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for r := 0; r < f.rows; r++ {
		vals := make([]any, len(f.names))
		for c, v := range f.row(r) {
			vals[c] = v.Any()
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := wb.SetSheetRow(sheet, cell, &vals); err != nil {
			return fmt.Errorf("row %d: %w", r, err)
		}
	}
	return wb.Write(w)
}

// ============================================================================
// Text grids
// ============================================================================

// Render writes the text grid of Table.Render, capped at maxRows rows.
func Render(w io.Writer, t *engine.Table, maxRows int) error {
	_, err := io.WriteString(w, t.Render(maxRows)+"\n")
	return err
}

// WriteMarkdown writes the table as a Markdown pipe table, row labels first.
func WriteMarkdown(w io.Writer, t *engine.Table) error {
	f, err := unpack(t, Options{IncludeIndex: true, IndexName: " "})
	if err != nil {
		return err
	}
	tw := table.NewWriter()
	header := make(table.Row, len(f.names))
	for i, n := range f.names {
		header[i] = n
	}
	tw.AppendHeader(header)
	for r := 0; r < f.rows; r++ {
		row := make(table.Row, len(f.names))
		for c, v := range f.row(r) {
			row[c] = valueToString(v)
		}
		tw.AppendRow(row)
	}
	_, err = io.WriteString(w, tw.RenderMarkdown()+"\n")
	return err
}
