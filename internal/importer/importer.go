// Package importer loads tinyFrame tables from files and databases.
//
// Supported sources: CSV/TSV (delimiter, header and encoding detection,
// transparent gzip), JSON arrays of objects, YAML sequences of mappings,
// Excel workbooks, database/sql query results, GeoJSON and KML features and
// the attribute table of ESRI shapefiles. Column types are inferred from
// the data; a column that mixes text with numbers is rejected unless
// Options.MixedAsText is set.
//
// Example:
//
//	res, err := importer.LoadFile(ctx, "data.csv", nil)
//	if err != nil {
//		return err
//	}
//	fmt.Println(res.Table.Shape())
package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SimonWaldherr/tinyFrame/internal/engine"
	"github.com/SimonWaldherr/tinyFrame/internal/storage"
)

// ============================================================================
// Public API Types
// ============================================================================

// Options configures a load. A nil *Options means DefaultOptions(); zero
// fields of a non-nil Options are filled with the same defaults, except
// TypeInference and MixedAsText, which are taken as given.
type Options struct {
	// NullLiterals are read as missing (case-insensitive, trimmed) in
	// text-based sources. Default: "", "null", "na", "n/a", "none", "nan", "#n/a".
	NullLiterals []string

	// HeaderMode controls header detection:
	//   "auto" (default)  → heuristic decides based on the sampled records
	//   "present"         → first row is always the header
	//   "absent"          → first row is data, columns are named col_1, col_2, ...
	HeaderMode string `validate:"oneof=auto present absent"`

	// DelimiterCandidates tested during detection. Default: , ; \t |
	DelimiterCandidates []rune `validate:"min=1"`

	// SampleBytes caps the data used for delimiter and header detection (default 128KB).
	SampleBytes int `validate:"gte=16"`

	// SampleRecords caps the records used for detection and type inference (default 500).
	SampleRecords int `validate:"gte=1"`

	// TypeInference detects INT, FLOAT and BOOL columns. When off, every
	// text-based column is TEXT.
	TypeInference bool

	// MixedAsText loads a column mixing text with numbers or booleans as
	// TEXT instead of failing.
	MixedAsText bool

	// Sheet selects the workbook sheet for Excel sources (default: first sheet).
	Sheet string

	// IndexColumn, when set, moves that column into the row index.
	IndexColumn string

	// Logger receives detection results at debug level (default slog.Default()).
	Logger *slog.Logger `validate:"-"`
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() *Options {
	o := &Options{TypeInference: true}
	applyDefaults(o)
	return o
}

// Result describes a completed load.
type Result struct {
	Table       *engine.Table
	Format      string            // "csv", "json", "yaml", "excel", "sql", "geojson", "kml" or "shapefile"
	Delimiter   rune              // Detected or configured delimiter (CSV only)
	HadHeader   bool              // Whether a header row was detected/configured
	Encoding    string            // "utf-8", "utf-8-bom", "utf-16le", "utf-16be"
	Compressed  bool              // Input was gzip-compressed
	ColumnNames []string          // Final column names used
	ColumnTypes []storage.ColType // Column types after inference
	Errors      []string          // Non-fatal problems, such as truncated ragged rows
}

var validate = validator.New()

func applyDefaults(o *Options) {
	if o.NullLiterals == nil {
		o.NullLiterals = []string{"", "null", "na", "n/a", "none", "nan", "#n/a"}
	}
	if o.HeaderMode == "" {
		o.HeaderMode = "auto"
	}
	if len(o.DelimiterCandidates) == 0 {
		o.DelimiterCandidates = []rune{',', ';', '\t', '|'}
	}
	if o.SampleBytes <= 0 {
		o.SampleBytes = 128 * 1024
	}
	if o.SampleRecords <= 0 {
		o.SampleRecords = 500
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// prepare copies opts, fills defaults and validates the result. The caller's
// Options are never modified.
func prepare(opts *Options) (*Options, error) {
	if opts == nil {
		return DefaultOptions(), nil
	}
	o := *opts
	applyDefaults(&o)
	if err := validate.Struct(&o); err != nil {
		return nil, fmt.Errorf("invalid import options: %w", err)
	}
	return &o, nil
}

// sourceErr wraps a load failure in ErrSource, keeping the cause.
func sourceErr(format string, err error) error {
	return fmt.Errorf("%w: %s: %w", storage.ErrSource, format, err)
}

// ============================================================================
// Tracing
// ============================================================================

const tracerName = "github.com/SimonWaldherr/tinyFrame/internal/importer"

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "importer."+name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// endSpan records the outcome of a load on its span and closes it.
func endSpan(span trace.Span, res *Result, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if res != nil && res.Table != nil {
		rows, cols := res.Table.Shape()
		span.SetAttributes(
			attribute.Int("table.rows", rows),
			attribute.Int("table.cols", cols),
		)
	}
	span.End()
}

// finish applies IndexColumn and fills the result metadata from the table.
func finish(res *Result, t *engine.Table, opts *Options) (*Result, error) {
	if opts.IndexColumn != "" {
		indexed, err := t.SetIndex(opts.IndexColumn)
		if err != nil {
			return nil, fmt.Errorf("index column: %w", err)
		}
		t = indexed
	}
	res.Table = t
	res.ColumnNames = t.Columns()
	res.ColumnTypes = t.Types()
	rows, cols := t.Shape()
	opts.Logger.Debug("table loaded",
		slog.String("format", res.Format),
		slog.Int("rows", rows),
		slog.Int("cols", cols),
		slog.Int("warnings", len(res.Errors)),
	)
	return res, nil
}
