package importer

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/SimonWaldherr/tinyFrame/internal/engine"
)

// ============================================================================
// File Format Detection and Import
// ============================================================================

// LoadFile detects the format of a file and loads it.
//
// The format follows the extension (.csv, .tsv, .tab, .json, .geojson, .kml,
// .yaml, .yml, .xlsx, .shp; a trailing .gz is stripped first). Unknown
// extensions are sniffed from the content: GeoJSON or JSON when it starts
// with '{' or '[', KML for a <kml> document, Excel for a zip header, YAML for
// a "---" or "- " prefix, delimited text otherwise.
// .tsv and .tab files are always split on tabs.
func LoadFile(ctx context.Context, path string, opts *Options) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".gz" {
		ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(path, filepath.Ext(path))))
	}
	if ext == ".shp" {
		return ReadShapefile(ctx, path, opts)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, sourceErr(strings.TrimPrefix(ext, "."), fmt.Errorf("open file: %w", err))
	}
	defer f.Close()

	switch ext {
	case ".csv":
		return ReadCSV(ctx, f, opts)
	case ".tsv", ".tab":
		o := DefaultOptions()
		if opts != nil {
			c := *opts
			o = &c
		}
		o.DelimiterCandidates = []rune{'\t'}
		return ReadCSV(ctx, f, o)
	case ".json", ".jsonl", ".ndjson":
		return ReadJSON(ctx, f, opts)
	case ".geojson":
		return loadCompressed(ctx, f, opts, ReadGeoJSON)
	case ".kml":
		return loadCompressed(ctx, f, opts, ReadKML)
	case ".yaml", ".yml":
		return loadCompressed(ctx, f, opts, ReadYAML)
	case ".xlsx", ".xlsm":
		return loadCompressed(ctx, f, opts, ReadExcel)
	default:
		return loadByContent(ctx, f, opts)
	}
}

type readFunc func(context.Context, io.Reader, *Options) (*Result, error)

// loadCompressed decompresses gzip input for readers that do not handle it
// themselves.
func loadCompressed(ctx context.Context, src io.Reader, opts *Options, read readFunc) (*Result, error) {
	r, gz, err := maybeGzip(src)
	if err != nil {
		return nil, sourceErr("file", err)
	}
	res, err := read(ctx, r, opts)
	if err != nil {
		return nil, err
	}
	res.Compressed = res.Compressed || gz
	return res, nil
}

// loadByContent picks a reader from the first bytes of the (decompressed)
// input.
func loadByContent(ctx context.Context, src io.Reader, opts *Options) (*Result, error) {
	r, gz, err := maybeGzip(src)
	if err != nil {
		return nil, sourceErr("file", err)
	}
	br := bufio.NewReader(r)
	peek, _ := br.Peek(512)

	read := sniffFormat(peek)
	res, err := read(ctx, br, opts)
	if err != nil {
		return nil, err
	}
	res.Compressed = res.Compressed || gz
	return res, nil
}

func sniffFormat(peek []byte) readFunc {
	if bytes.HasPrefix(peek, []byte("PK\x03\x04")) {
		return ReadExcel
	}
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(peek, []byte("\xEF\xBB\xBF")), " \t\r\n")
	switch {
	case bytes.HasPrefix(trimmed, []byte("{")) && bytes.Contains(peek, []byte(`"Feature`)):
		return ReadGeoJSON
	case bytes.HasPrefix(trimmed, []byte("[")), bytes.HasPrefix(trimmed, []byte("{")):
		return ReadJSON
	case bytes.HasPrefix(trimmed, []byte("<")) && bytes.Contains(peek, []byte("<kml")):
		return ReadKML
	case bytes.HasPrefix(trimmed, []byte("---")), bytes.HasPrefix(trimmed, []byte("- ")):
		return ReadYAML
	}
	return ReadCSV
}

// ============================================================================
// OpenFile - load straight into a catalog
// ============================================================================

// OpenFile loads a file and registers it in cat under a name derived from
// the file name ("sales-2024.csv" → "sales_2024"). An existing table of the
// same name is replaced.
//
//	cat := engine.NewCatalog()
//	name, _, err := importer.OpenFile(ctx, cat, "data.csv", nil)
func OpenFile(ctx context.Context, cat *engine.Catalog, path string, opts *Options) (string, *Result, error) {
	res, err := LoadFile(ctx, path, opts)
	if err != nil {
		return "", nil, err
	}
	name := TableNameFromPath(path)
	cat.Replace(name, res.Table)
	return name, res, nil
}

// TableNameFromPath derives a table name from a file name: extensions
// (including .gz) are removed and every character outside [A-Za-z0-9_]
// becomes '_'. Leading digits are dropped.
func TableNameFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".gz")
	name = strings.TrimSuffix(name, filepath.Ext(name))

	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, name)
	name = strings.TrimLeftFunc(name, func(r rune) bool {
		return r >= '0' && r <= '9'
	})
	if name == "" {
		name = "imported_table"
	}
	return name
}
