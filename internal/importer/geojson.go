package importer

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
)

// ============================================================================
// GeoJSON Import
// ============================================================================

// ReadGeoJSON loads a FeatureCollection, a single Feature or a sequence of
// Features (GeoJSON text sequence). Feature properties become columns in
// first-appearance order; two trailing columns hold the geometry type and
// the geometry itself as compact JSON text.
func ReadGeoJSON(ctx context.Context, src io.Reader, opts *Options) (res *Result, err error) {
	ctx, span := startSpan(ctx, "ReadGeoJSON")
	defer func() { endSpan(span, res, err) }()

	o, err := prepare(opts)
	if err != nil {
		return nil, err
	}
	res = &Result{Format: "geojson", Encoding: "utf-8", HadHeader: true, Errors: make([]string, 0)}

	dec := json.NewDecoder(bufio.NewReader(src))
	dec.UseNumber()

	var features []map[string]any
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var obj map[string]any
		err := dec.Decode(&obj)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, sourceErr("geojson", fmt.Errorf("decode: %w", err))
		}
		collected, err := collectFeatures(obj)
		if err != nil {
			return nil, sourceErr("geojson", err)
		}
		features = append(features, collected...)
	}
	if len(features) == 0 {
		return nil, sourceErr("geojson", errors.New("no features found"))
	}
	o.Logger.Debug("geojson read", slog.Int("features", len(features)))
	return featuresTableFrom(newRecordSet(), features, o, res)
}

// collectFeatures returns the features of a FeatureCollection, or obj itself
// when it is a Feature.
func collectFeatures(obj map[string]any) ([]map[string]any, error) {
	switch obj["type"] {
	case "FeatureCollection":
		arr, ok := obj["features"].([]any)
		if !ok {
			return nil, errors.New("FeatureCollection without a features array")
		}
		out := make([]map[string]any, 0, len(arr))
		for i, item := range arr {
			f, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("feature %d is not an object", i+1)
			}
			out = append(out, f)
		}
		return out, nil
	case "Feature":
		return []map[string]any{obj}, nil
	}
	return nil, fmt.Errorf("unsupported GeoJSON type %v", obj["type"])
}

// featuresTableFrom lays out feature properties as columns after those
// already in rs and appends the geometry_type and geometry columns.
func featuresTableFrom(rs *recordSet, features []map[string]any, o *Options, res *Result) (*Result, error) {
	geoms := make([][2]any, len(features))
	for i, f := range features {
		rec := map[string]any{}
		props, _ := f["properties"].(map[string]any)
		for _, k := range sortedKeys(props, rs) {
			rs.add(k, props[k], rec)
		}
		rs.rows = append(rs.rows, rec)

		if g, ok := f["geometry"].(map[string]any); ok {
			b, err := json.Marshal(g)
			if err != nil {
				return nil, sourceErr(res.Format, fmt.Errorf("feature %d geometry: %w", i+1, err))
			}
			geoms[i] = [2]any{g["type"], string(b)}
		}
	}

	names := normalizeHeader(append(append([]string(nil), rs.names...), "geometry_type", "geometry"))
	rows := rs.aligned()
	for i := range rows {
		rows[i] = append(rows[i], geoms[i][0], geoms[i][1])
	}
	t, err := tableFromValues(names, rows, o, res)
	if err != nil {
		return nil, err
	}
	return finish(res, t, o)
}

// sortedKeys orders the keys of m with already known columns first, in
// column order, then new keys alphabetically. Decoded maps carry no key
// order of their own.
func sortedKeys(m map[string]any, rs *recordSet) []string {
	known := make([]string, 0, len(m))
	var fresh []string
	for k := range m {
		if _, ok := rs.pos[k]; ok {
			known = append(known, k)
		} else {
			fresh = append(fresh, k)
		}
	}
	slices.SortFunc(known, func(a, b string) int { return rs.pos[a] - rs.pos[b] })
	slices.Sort(fresh)
	return append(known, fresh...)
}
