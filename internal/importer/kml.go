package importer

import (
	"bufio"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// Minimal KML structs
type kml struct {
	XMLName    xml.Name       `xml:"kml"`
	Document   *kmlDoc        `xml:"Document"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlDoc struct {
	Folders    []kmlDoc       `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name        string         `xml:"name"`
	Description string         `xml:"description"`
	Point       *kmlCoords     `xml:"Point"`
	LineString  *kmlCoords     `xml:"LineString"`
	Polygon     *kmlPolygon    `xml:"Polygon"`
	Data        []kmlDataField `xml:"ExtendedData>Data"`
}

type kmlCoords struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	Outer kmlCoords `xml:"outerBoundaryIs>LinearRing"`
}

type kmlDataField struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

// placemarks flattens nested folders in document order.
func (d *kmlDoc) placemarks() []kmlPlacemark {
	out := append([]kmlPlacemark(nil), d.Placemarks...)
	for i := range d.Folders {
		out = append(out, d.Folders[i].placemarks()...)
	}
	return out
}

// parseCoordinates parses KML coordinate text: lon,lat[,alt] tuples
// separated by whitespace.
func parseCoordinates(s string) ([][]float64, error) {
	parts := strings.Fields(s)
	coords := make([][]float64, 0, len(parts))
	for _, p := range parts {
		comps := strings.Split(p, ",")
		if len(comps) < 2 {
			return nil, fmt.Errorf("coordinate %q: expected lon,lat", p)
		}
		lon, err := strconv.ParseFloat(comps[0], 64)
		if err != nil {
			return nil, fmt.Errorf("coordinate %q: %w", p, err)
		}
		lat, err := strconv.ParseFloat(comps[1], 64)
		if err != nil {
			return nil, fmt.Errorf("coordinate %q: %w", p, err)
		}
		coords = append(coords, []float64{lon, lat})
	}
	return coords, nil
}

// ReadKML loads KML Placemarks, including those in nested folders. name,
// description and ExtendedData fields become TEXT columns; the geometry is
// stored as ReadGeoJSON stores it.
func ReadKML(ctx context.Context, src io.Reader, opts *Options) (res *Result, err error) {
	ctx, span := startSpan(ctx, "ReadKML")
	defer func() { endSpan(span, res, err) }()

	o, err := prepare(opts)
	if err != nil {
		return nil, err
	}
	res = &Result{Format: "kml", Encoding: "utf-8", HadHeader: true, Errors: make([]string, 0)}

	var root kml
	if err := xml.NewDecoder(bufio.NewReader(src)).Decode(&root); err != nil {
		return nil, sourceErr("kml", fmt.Errorf("decode: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	placemarks := root.Placemarks
	if root.Document != nil {
		placemarks = append(placemarks, root.Document.placemarks()...)
	}
	if len(placemarks) == 0 {
		return nil, sourceErr("kml", errors.New("no placemarks found"))
	}

	features := make([]map[string]any, 0, len(placemarks))
	for i, p := range placemarks {
		props := map[string]any{"name": p.Name, "description": p.Description}
		for _, d := range p.Data {
			props[d.Name] = d.Value
		}
		geom, err := p.geometry()
		if err != nil {
			return nil, sourceErr("kml", fmt.Errorf("placemark %d: %w", i+1, err))
		}
		f := map[string]any{"type": "Feature", "properties": props}
		if geom != nil {
			f["geometry"] = geom
		}
		features = append(features, f)
	}
	o.Logger.Debug("kml read", slog.Int("placemarks", len(features)))

	// name and description lead; ExtendedData fields follow alphabetically.
	rs := newRecordSet()
	rs.add("name", nil, map[string]any{})
	rs.add("description", nil, map[string]any{})
	return featuresTableFrom(rs, features, o, res)
}

func (p *kmlPlacemark) geometry() (map[string]any, error) {
	switch {
	case p.Point != nil:
		coords, err := parseCoordinates(p.Point.Coordinates)
		if err != nil {
			return nil, err
		}
		if len(coords) == 0 {
			return nil, errors.New("point without coordinates")
		}
		return map[string]any{"type": "Point", "coordinates": coords[0]}, nil
	case p.LineString != nil:
		coords, err := parseCoordinates(p.LineString.Coordinates)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "LineString", "coordinates": coords}, nil
	case p.Polygon != nil:
		coords, err := parseCoordinates(p.Polygon.Outer.Coordinates)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "Polygon", "coordinates": [][][]float64{coords}}, nil
	}
	return nil, nil
}
