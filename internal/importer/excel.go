package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================================
// Excel Import
// ============================================================================

// ReadExcel loads one sheet of an .xlsx workbook: opts.Sheet, or the first
// sheet when unset. Cells are read unformatted and typed like CSV fields;
// header detection follows opts.HeaderMode.
func ReadExcel(ctx context.Context, src io.Reader, opts *Options) (res *Result, err error) {
	ctx, span := startSpan(ctx, "ReadExcel")
	defer func() { endSpan(span, res, err) }()

	o, err := prepare(opts)
	if err != nil {
		return nil, err
	}
	res = &Result{Format: "excel", Encoding: "utf-8", Errors: make([]string, 0)}

	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, sourceErr("excel", fmt.Errorf("failed to open workbook: %w", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, sourceErr("excel", errors.New("workbook has no sheets"))
	}
	sheet := sheets[0]
	if o.Sheet != "" {
		if !slices.Contains(sheets, o.Sheet) {
			return nil, sourceErr("excel", fmt.Errorf("sheet %q not found (have %v)", o.Sheet, sheets))
		}
		sheet = o.Sheet
	}
	span.SetAttributes(attribute.String("excel.sheet", sheet))

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, sourceErr("excel", fmt.Errorf("sheet %q: %w", sheet, err))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := restoreBools(f, sheet, rows); err != nil {
		return nil, sourceErr("excel", err)
	}
	rows = dropBlankRows(rows)
	if len(rows) == 0 {
		return nil, sourceErr("excel", fmt.Errorf("sheet %q is empty", sheet))
	}

	sample := rows
	if len(sample) > o.SampleRecords {
		sample = sample[:o.SampleRecords]
	}
	res.HadHeader = decideHeader(sample, o.HeaderMode)
	o.Logger.Debug("excel detection",
		slog.String("sheet", sheet),
		slog.Int("rows", len(rows)),
		slog.Bool("header", res.HadHeader),
	)

	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	var names []string
	if res.HadHeader {
		names = normalizeHeader(pad(rows[0], width))
		rows = rows[1:]
	} else {
		names = generateColumnNames(width)
	}

	t, err := tableFromRecords(names, rows, o, res)
	if err != nil {
		return nil, err
	}
	return finish(res, t, o)
}

// restoreBools rewrites boolean cells, which raw reads report as "1" or
// "0", to "true" or "false". Must run before rows are dropped so positions
// still match cell names.
func restoreBools(f *excelize.File, sheet string, rows [][]string) error {
	for r, row := range rows {
		for c, v := range row {
			if v != "1" && v != "0" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			typ, err := f.GetCellType(sheet, cell)
			if err != nil {
				return fmt.Errorf("cell %s: %w", cell, err)
			}
			if typ == excelize.CellTypeBool {
				row[c] = strconv.FormatBool(v == "1")
			}
		}
	}
	return nil
}

// dropBlankRows removes rows without any non-empty cell; GetRows reports
// them for formatted but empty rows.
func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, r := range rows {
		if slices.ContainsFunc(r, func(s string) bool { return s != "" }) {
			out = append(out, r)
		}
	}
	return out
}

func pad(rec []string, n int) []string {
	if len(rec) >= n {
		return rec
	}
	return append(slices.Clone(rec), make([]string, n-len(rec))...)
}
