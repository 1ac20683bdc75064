// Package tinyframe provides an embeddable, in-memory table for Go programs:
// load or construct a rectangular table of named, typed columns and ask it
// selection, filtering, sorting and aggregation questions.
//
// # Basic Usage
//
// Build a table from columns and filter it:
//
//	t, _ := tinyframe.FromMap(map[string]any{
//	    "name":   []string{"Ann", "Ben", "Cid"},
//	    "gender": []string{"female", "male", "female"},
//	    "mark":   []float64{65.5, 80, 92},
//	}, "name", "gender", "mark")
//
//	good, _ := t.Where(tinyframe.Col("gender").Eq("female").
//	    And(tinyframe.Col("mark").Gt(tinyframe.MeanOf("mark"))))
//	fmt.Println(good)
//
// # Loading Files
//
// CSV, TSV, JSON, YAML, Excel, GeoJSON, KML and shapefiles are recognised by
// extension or content:
//
//	res, err := tinyframe.LoadFile(ctx, "students.csv", nil)
//	fmt.Println(res.Table.Shape())
//
// # Selection
//
// Label-based selection includes both ends of a range; position-based
// selection excludes the end:
//
//	t.Loc(tinyframe.LabelRange(1, 3), tinyframe.AllCols()) // labels 1, 2 and 3
//	t.ILoc(tinyframe.Range(1, 3), tinyframe.All())         // positions 1 and 2
//
// Tables are immutable; every operation returns a new table.
package tinyframe

import (
	"context"
	"io"

	"github.com/SimonWaldherr/tinyFrame/internal/engine"
	"github.com/SimonWaldherr/tinyFrame/internal/exporter"
	"github.com/SimonWaldherr/tinyFrame/internal/importer"
	"github.com/SimonWaldherr/tinyFrame/internal/storage"
)

// ============================================================================
// Core Types - Re-exported from internal packages for public API
// ============================================================================

// Table is an ordered set of equally long, uniquely named columns with a row
// index of labels.
type Table = engine.Table

// Series is a single column together with the row labels.
type Series = engine.Series

// Column is a named, homogeneously typed sequence of cells.
type Column = storage.Column

// Value is one cell: missing, int, float, text or bool.
type Value = storage.Value

// ColType enumerates column types (INT, FLOAT, TEXT, BOOL).
type ColType = storage.ColType

// Mask is a per-row boolean sequence used to filter rows.
type Mask = engine.Mask

// Cond is a row predicate evaluated against a table.
type Cond = engine.Cond

// AggOp is a column reduction such as AggMean.
type AggOp = engine.AggOp

// CmpOp is a comparison operator such as OpGt.
type CmpOp = engine.CmpOp

// RowSpec and ColSpec select rows and columns by label for Loc.
type (
	RowSpec = engine.RowSpec
	ColSpec = engine.ColSpec
)

// Span is a half-open position range for ILoc.
type Span = engine.Span

// SortKey orders rows by one column in one direction.
type SortKey = engine.SortKey

// Grouped is a table split by the values of a key column.
type Grouped = engine.Grouped

// ColumnSummary holds the statistics Describe reports for one column.
type ColumnSummary = engine.ColumnSummary

// Catalog is a named registry of tables.
type Catalog = engine.Catalog

// ColRef and AggRef are condition operands: a column, or an aggregate of a
// column resolved when the condition is evaluated.
type (
	ColRef = engine.ColRef
	AggRef = engine.AggRef
)

// ============================================================================
// Constants and Errors
// ============================================================================

const (
	IntType   = storage.IntType
	FloatType = storage.FloatType
	TextType  = storage.TextType
	BoolType  = storage.BoolType
)

const (
	AggMax    = engine.AggMax
	AggMin    = engine.AggMin
	AggMean   = engine.AggMean
	AggMedian = engine.AggMedian
	AggSum    = engine.AggSum
	AggStd    = engine.AggStd
	AggCount  = engine.AggCount
)

const (
	OpEq = engine.OpEq
	OpNe = engine.OpNe
	OpGt = engine.OpGt
	OpGe = engine.OpGe
	OpLt = engine.OpLt
	OpLe = engine.OpLe
)

// Error kinds; match them with errors.Is.
var (
	ErrShapeMismatch   = storage.ErrShapeMismatch
	ErrSource          = storage.ErrSource
	ErrLabelNotFound   = storage.ErrLabelNotFound
	ErrIndexOutOfRange = storage.ErrIndexOutOfRange
	ErrType            = storage.ErrType
	ErrEmptyColumn     = storage.ErrEmptyColumn
	ErrDuplicateColumn = storage.ErrDuplicateColumn
)

// ============================================================================
// Construction
// ============================================================================

// NewColumn builds a column from a Go slice ([]int, []int64, []float64,
// []string, []bool, []any or []Value), inferring its type.
func NewColumn(name string, values any) (*Column, error) { return storage.NewColumn(name, values) }

// New builds a table from columns of equal length and distinct names.
func New(cols ...*Column) (*Table, error) { return engine.New(cols...) }

// FromMap builds a table from a mapping of column name to slice. order fixes
// the column order; unlisted columns follow alphabetically.
func FromMap(data map[string]any, order ...string) (*Table, error) {
	return engine.FromMap(data, order...)
}

// NewSeries builds a series labelled 0..n-1.
func NewSeries(name string, values any) (*Series, error) { return engine.NewSeries(name, values) }

// NewMask wraps a boolean slice for Filter.
func NewMask(bits []bool) Mask { return engine.NewMask(bits) }

// NewCatalog returns an empty table registry.
func NewCatalog() *Catalog { return engine.NewCatalog() }

// ValueOf converts a Go scalar (or nil for missing) into a Value.
func ValueOf(x any) (Value, error) { return storage.ValueOf(x) }

// Missing returns the missing cell.
func Missing() Value { return storage.Missing() }

// Compare orders two present values of compatible kinds.
func Compare(a, b Value) (int, error) { return storage.Compare(a, b) }

// ParseColType, ParseAggOp and ParseCmpOp read names used in configuration
// and on the command line.
func ParseColType(s string) (ColType, error) { return storage.ParseColType(s) }
func ParseAggOp(s string) (AggOp, error)     { return engine.ParseAggOp(s) }
func ParseCmpOp(s string) (CmpOp, error)     { return engine.ParseCmpOp(s) }

// ============================================================================
// Conditions and Selections
// ============================================================================

// Col references a column inside a condition.
func Col(name string) ColRef { return engine.Col(name) }

// MeanOf and AggOf reference aggregates evaluated on the filtered table.
func MeanOf(name string) AggRef          { return engine.MeanOf(name) }
func AggOf(name string, op AggOp) AggRef { return engine.AggOf(name, op) }

// AllOf and AnyOf combine conditions with AND and OR.
func AllOf(conds ...Cond) Cond { return engine.AllOf(conds...) }
func AnyOf(conds ...Cond) Cond { return engine.AnyOf(conds...) }

// Row selectors for Loc.
func Label(label any) RowSpec       { return engine.Label(label) }
func Labels(labels ...any) RowSpec  { return engine.Labels(labels...) }
func LabelRange(lo, hi any) RowSpec { return engine.LabelRange(lo, hi) }
func Where(m Mask) RowSpec          { return engine.Where(m) }
func Match(c Cond) RowSpec          { return engine.Match(c) }
func AllRows() RowSpec              { return engine.AllRows() }

// Column selectors for Loc.
func Cols(names ...string) ColSpec   { return engine.Cols(names...) }
func ColRange(lo, hi string) ColSpec { return engine.ColRange(lo, hi) }
func AllCols() ColSpec               { return engine.AllCols() }

// Range is the position span [start, stop); All spans a whole axis.
func Range(start, stop int) Span { return engine.Range(start, stop) }
func All() Span                  { return engine.All() }

// ============================================================================
// Loading and Writing
// ============================================================================

// ImportOptions configures loaders; nil means DefaultImportOptions().
type ImportOptions = importer.Options

// ImportResult describes a completed load.
type ImportResult = importer.Result

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier = importer.Querier

// ExportOptions configures writers.
type ExportOptions = exporter.Options

// DefaultImportOptions returns the loader defaults.
func DefaultImportOptions() *ImportOptions { return importer.DefaultOptions() }

// LoadFile loads a file, choosing the format by extension or content.
func LoadFile(ctx context.Context, path string, opts *ImportOptions) (*ImportResult, error) {
	return importer.LoadFile(ctx, path, opts)
}

// OpenFile loads a file and registers it in cat under a name derived from
// the file name, which it returns.
func OpenFile(ctx context.Context, cat *Catalog, path string, opts *ImportOptions) (string, *ImportResult, error) {
	return importer.OpenFile(ctx, cat, path, opts)
}

// ReadCSV loads delimited text, detecting delimiter, header and encoding.
func ReadCSV(ctx context.Context, r io.Reader, opts *ImportOptions) (*ImportResult, error) {
	return importer.ReadCSV(ctx, r, opts)
}

// ReadJSON loads a JSON array of objects or JSON lines.
func ReadJSON(ctx context.Context, r io.Reader, opts *ImportOptions) (*ImportResult, error) {
	return importer.ReadJSON(ctx, r, opts)
}

// ReadYAML loads a YAML sequence of mappings.
func ReadYAML(ctx context.Context, r io.Reader, opts *ImportOptions) (*ImportResult, error) {
	return importer.ReadYAML(ctx, r, opts)
}

// ReadExcel loads one sheet of an .xlsx workbook.
func ReadExcel(ctx context.Context, r io.Reader, opts *ImportOptions) (*ImportResult, error) {
	return importer.ReadExcel(ctx, r, opts)
}

// ReadSQL loads the rows of a database query.
func ReadSQL(ctx context.Context, db Querier, query string, args ...any) (*ImportResult, error) {
	return importer.ReadSQL(ctx, db, query, args...)
}

// WriteCSV, WriteJSON, WriteXML and WriteExcel serialise a table.
func WriteCSV(w io.Writer, t *Table, opts ExportOptions) error   { return exporter.WriteCSV(w, t, opts) }
func WriteJSON(w io.Writer, t *Table, opts ExportOptions) error  { return exporter.WriteJSON(w, t, opts) }
func WriteXML(w io.Writer, t *Table, opts ExportOptions) error   { return exporter.WriteXML(w, t, opts) }
func WriteExcel(w io.Writer, t *Table, opts ExportOptions) error { return exporter.WriteExcel(w, t, opts) }
