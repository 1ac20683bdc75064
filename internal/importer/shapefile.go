package importer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"go.opentelemetry.io/otel/attribute"
)

// ReadShapefile loads the attribute table (DBF) of a .shp file, one row per
// shape. When every shape is a point, its coordinates are added as FLOAT
// columns x and y.
func ReadShapefile(ctx context.Context, path string, opts *Options) (res *Result, err error) {
	ctx, span := startSpan(ctx, "ReadShapefile", attribute.String("file.name", filepath.Base(path)))
	defer func() { endSpan(span, res, err) }()

	o, err := prepare(opts)
	if err != nil {
		return nil, err
	}
	res = &Result{Format: "shapefile", HadHeader: true, Errors: make([]string, 0)}

	r, err := shp.Open(path)
	if err != nil {
		return nil, sourceErr("shapefile", fmt.Errorf("open shapefile: %w", err))
	}
	defer r.Close()

	fields := r.Fields()
	names := make([]string, len(fields))
	for i, fld := range fields {
		names[i] = fld.String()
	}
	names = normalizeHeader(names)

	var (
		records [][]string
		points  = true
	)
	for r.Next() {
		if len(records)%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		idx, shape := r.Shape()
		rec := make([]string, len(fields), len(fields)+2)
		for fi := range fields {
			// DBF values are padded with spaces and sometimes NULs.
			rec[fi] = strings.Trim(r.ReadAttribute(idx, fi), " \x00")
		}
		if p, ok := shape.(*shp.Point); ok && points {
			rec = append(rec, coord(p.X), coord(p.Y))
		} else {
			points = false
		}
		records = append(records, rec)
	}
	if err := r.Err(); err != nil {
		return nil, sourceErr("shapefile", err)
	}
	if len(records) == 0 {
		return nil, sourceErr("shapefile", fmt.Errorf("no shapes found in %s", filepath.Base(path)))
	}
	if points {
		names = normalizeHeader(append(names, "x", "y"))
	} else {
		for i := range records {
			records[i] = records[i][:len(fields)]
		}
	}
	o.Logger.Debug("shapefile read",
		slog.String("file", filepath.Base(path)),
		slog.Int("shapes", len(records)),
		slog.Int("fields", len(fields)),
		slog.Bool("points", points),
	)

	t, err := tableFromRecords(names, records, o, res)
	if err != nil {
		return nil, err
	}
	return finish(res, t, o)
}

// coord formats a coordinate so that integral values still read as FLOAT.
func coord(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
