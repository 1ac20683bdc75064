package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SimonWaldherr/tinyFrame/internal/engine"
	"github.com/SimonWaldherr/tinyFrame/internal/importer"
	"github.com/SimonWaldherr/tinyFrame/internal/storage"
	"github.com/SimonWaldherr/tinyFrame/internal/testutil"
)

func makeSample(t *testing.T) *engine.Table {
	t.Helper()
	tbl, err := engine.New(
		storage.MustColumn("id", []int{1, 2, 3}),
		storage.MustColumn("name", []any{"alice", "bob, jr", nil}),
		storage.MustColumn("score", []any{1.5, 2.0, nil}),
		storage.MustColumn("active", []bool{true, false, true}),
	)
	require.NoError(t, err)
	return tbl
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, makeSample(t), Options{}))
	golden(t).Assert(t, "sample_csv", buf.Bytes())
}

func TestWriteCSV_IndexAndDelimiter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, makeSample(t), Options{IncludeIndex: true, CSVDelimiter: ';'}))
	golden(t).Assert(t, "sample_index_semicolon_csv", buf.Bytes())
}

func TestWriteCSV_NoHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, makeSample(t).Head(1), Options{CSVNoHeader: true}))
	assert.Equal(t, "1,alice,1.5,true\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, makeSample(t), Options{}))
	golden(t).Assert(t, "sample_json", buf.Bytes())

	var arr []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &arr))
	assert.Len(t, arr, 3)
	assert.Nil(t, arr[2]["name"])
}

func TestWriteJSON_Pretty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, makeSample(t), Options{PrettyJSON: true}))
	golden(t).Assert(t, "sample_pretty_json", buf.Bytes())
}

func TestWriteJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, makeSample(t).Head(0), Options{PrettyJSON: true}))
	assert.Equal(t, "[]\n", buf.String())
}

// TestWriteJSON_RoundTrip reloads the output and expects the same types.
func TestWriteJSON_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	src := makeSample(t)
	require.NoError(t, WriteJSON(&buf, src, Options{}))

	res, err := importer.ReadJSON(context.Background(), &buf, nil)
	require.NoError(t, err)
	assert.Equal(t, src.Columns(), res.ColumnNames)
	assert.Equal(t, src.Types(), res.ColumnTypes)
}

func TestWriteXML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXML(&buf, makeSample(t).Head(2), Options{}))
	golden(t).Assert(t, "sample_xml", buf.Bytes())
}

func TestWriteExcel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, makeSample(t), Options{Sheet: "Data"}))

	wb, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{"Data"}, wb.GetSheetList())

	rows, err := wb.GetRows("Data")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"id", "name", "score", "active"}, rows[0])
	assert.Equal(t, "bob, jr", rows[2][1])

	typ, err := wb.GetCellType("Data", "D2")
	require.NoError(t, err)
	assert.Equal(t, excelize.CellTypeBool, typ)

	// Reading the workbook back restores the column types.
	res, err := importer.ReadExcel(context.Background(), bytes.NewReader(buf.Bytes()), nil)
	require.NoError(t, err)
	assert.Equal(t, []storage.ColType{storage.IntType, storage.TextType, storage.FloatType, storage.BoolType}, res.ColumnTypes)
	name, err := res.Table.Column("name")
	require.NoError(t, err)
	assert.Equal(t, 1, name.MissingCount())
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, makeSample(t), 0))
	out := buf.String()
	assert.Contains(t, out, "bob, jr")
	assert.Contains(t, out, "NaN")
	assert.Contains(t, out, "[3 rows x 4 columns]")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, makeSample(t)))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// header, separator and one line per row
	require.Len(t, lines, 5)
	for _, ln := range lines {
		assert.True(t, strings.HasPrefix(ln, "|"), ln)
	}
	assert.Contains(t, lines[0], "score")
	assert.Contains(t, lines[3], "bob, jr")
}

func TestValueToString(t *testing.T) {
	cases := map[string]storage.Value{
		"":      storage.Missing(),
		"2.0":   storage.Float(2),
		"-0.25": storage.Float(-0.25),
		"7":     storage.Int(7),
		"false": storage.Bool(false),
		"x":     storage.Text("x"),
	}
	for want, v := range cases {
		assert.Equal(t, want, valueToString(v))
	}
}

// TestWriteCSV_FixtureRoundTrip reads the CSV form of a fixture back and
// expects the same shape and types. The empty product name comes back
// missing, since "" is a null literal on import.
func TestWriteCSV_FixtureRoundTrip(t *testing.T) {
	src := testutil.Fixture(t, "sales")
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, src, Options{}))

	opts := importer.DefaultOptions()
	opts.Logger = testutil.NewTestLogger(t)
	res, err := importer.ReadCSV(context.Background(), &buf, opts)
	require.NoError(t, err)
	assert.Equal(t, src.Columns(), res.Table.Columns())
	assert.Equal(t, src.Types(), res.Table.Types())
	assert.Equal(t, src.NumRows(), res.Table.NumRows())
	product, err := res.Table.Column("product")
	require.NoError(t, err)
	assert.True(t, product.Values()[4].IsMissing())
}
