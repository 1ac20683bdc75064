// Tests for the importer package. These exercise the CSV loader: delimiter
// detection, header handling, type inference and null handling, plus the
// option defaults shared by every loader.
package importer

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/SimonWaldherr/tinyFrame/internal/storage"
	"github.com/SimonWaldherr/tinyFrame/internal/testutil"
)

func readCSVString(t *testing.T, data string, opts *Options) *Result {
	t.Helper()
	if opts != nil && opts.Logger == nil {
		o := *opts
		o.Logger = testutil.NewTestLogger(t)
		opts = &o
	}
	res, err := ReadCSV(context.Background(), strings.NewReader(data), opts)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	return res
}

func cellsOf(t *testing.T, res *Result, col string) []storage.Value {
	t.Helper()
	s, err := res.Table.Column(col)
	if err != nil {
		t.Fatalf("column %q: %v", col, err)
	}
	return s.Values()
}

// TestReadCSV_Basic verifies a simple CSV with header is loaded and
// rows/columns/types are recorded as expected.
func TestReadCSV_Basic(t *testing.T) {
	res := readCSVString(t, "id,name,age\n1,Alice,30\n2,Bob,25\n3,Charlie,35", nil)

	if rows, cols := res.Table.Shape(); rows != 3 || cols != 3 {
		t.Errorf("Expected shape (3, 3), got (%d, %d)", rows, cols)
	}
	if res.Delimiter != ',' {
		t.Errorf("Expected comma delimiter, got %q", res.Delimiter)
	}
	if !res.HadHeader {
		t.Error("Expected header to be detected")
	}
	if res.Format != "csv" || res.Encoding != "utf-8" || res.Compressed {
		t.Errorf("Unexpected metadata: format=%s encoding=%s gzip=%v", res.Format, res.Encoding, res.Compressed)
	}

	want := []storage.ColType{storage.IntType, storage.TextType, storage.IntType}
	for i, typ := range want {
		if res.ColumnTypes[i] != typ {
			t.Errorf("Column %s: expected %s, got %s", res.ColumnNames[i], typ, res.ColumnTypes[i])
		}
	}
	if got := cellsOf(t, res, "name")[2]; !storage.Same(got, storage.Text("Charlie")) {
		t.Errorf("Expected Charlie, got %v", got)
	}
}

// TestReadCSV_NoHeader verifies that with HeaderMode "absent" the importer
// synthesizes column names (col_1, col_2, ...).
func TestReadCSV_NoHeader(t *testing.T) {
	res := readCSVString(t, "1,Alice,30\n2,Bob,25\n3,Charlie,35", &Options{
		HeaderMode:    "absent",
		TypeInference: true,
	})

	if res.HadHeader {
		t.Error("Expected no header")
	}
	if rows := res.Table.NumRows(); rows != 3 {
		t.Errorf("Expected 3 rows, got %d", rows)
	}
	expectedNames := []string{"col_1", "col_2", "col_3"}
	for i, name := range expectedNames {
		if res.ColumnNames[i] != name {
			t.Errorf("Expected column %s, got %s", name, res.ColumnNames[i])
		}
	}
}

// TestReadCSV_HeaderPresent forces the first row to be the header even
// though nothing in the data suggests it.
func TestReadCSV_HeaderPresent(t *testing.T) {
	res := readCSVString(t, "a,b\nc,d\ne,f", &Options{HeaderMode: "present", TypeInference: true})
	if strings.Join(res.ColumnNames, ",") != "a,b" {
		t.Errorf("Expected columns a,b, got %v", res.ColumnNames)
	}
	if res.Table.NumRows() != 2 {
		t.Errorf("Expected 2 rows, got %d", res.Table.NumRows())
	}
}

// TestReadCSV_Delimiters ensures tab, semicolon and pipe separated data is
// split on the right character.
func TestReadCSV_Delimiters(t *testing.T) {
	cases := map[rune]string{
		'\t': "name\tscore\nAnn\t15\nBob\t25\nCid\t35",
		';':  "name;score\nAnn;15\nBob;25\nCid;35",
		'|':  "name|score\nAnn|15\nBob|25\nCid|35",
	}
	for delim, data := range cases {
		res := readCSVString(t, data, nil)
		if res.Delimiter != delim {
			t.Errorf("Expected delimiter %q, got %q", delim, res.Delimiter)
		}
		if strings.Join(res.ColumnNames, ",") != "name,score" {
			t.Errorf("Delimiter %q: unexpected columns %v", delim, res.ColumnNames)
		}
		if res.ColumnTypes[1] != storage.IntType {
			t.Errorf("Delimiter %q: expected INT score, got %s", delim, res.ColumnTypes[1])
		}
	}
}

// TestReadCSV_QuotedFields checks that delimiters and doubled quotes inside
// quoted fields are kept.
func TestReadCSV_QuotedFields(t *testing.T) {
	res := readCSVString(t, "id,comment\n1,\"Hello, world\"\n2,\"She said \"\"hi\"\"\"\n3,plain", nil)
	got := cellsOf(t, res, "comment")
	if !storage.Same(got[0], storage.Text("Hello, world")) {
		t.Errorf("Expected 'Hello, world', got %v", got[0])
	}
	if !storage.Same(got[1], storage.Text(`She said "hi"`)) {
		t.Errorf("Expected doubled quotes to collapse, got %v", got[1])
	}
}

// TestReadCSV_TypeInference checks INT, FLOAT (int and float mixed) and
// BOOL detection.
func TestReadCSV_TypeInference(t *testing.T) {
	res := readCSVString(t, "n,x,ok,label\n1,1.5,true,a\n2,2,no,b\n3,3.25,YES,c", nil)
	want := []storage.ColType{storage.IntType, storage.FloatType, storage.BoolType, storage.TextType}
	for i, typ := range want {
		if res.ColumnTypes[i] != typ {
			t.Errorf("Column %s: expected %s, got %s", res.ColumnNames[i], typ, res.ColumnTypes[i])
		}
	}
	ok := cellsOf(t, res, "ok")
	if b, _ := ok[2].Bool(); !b {
		t.Errorf("Expected YES to read as true, got %v", ok[2])
	}
	if f, _ := cellsOf(t, res, "x")[1].AsFloat(); f != 2 {
		t.Errorf("Expected 2.0, got %v", f)
	}
}

// TestReadCSV_NullHandling validates that configured null literals and
// empty fields are read as missing values.
func TestReadCSV_NullHandling(t *testing.T) {
	res := readCSVString(t, "a,b\n1,NA\n2,\n3,5", nil)
	if res.ColumnTypes[1] != storage.IntType {
		t.Fatalf("Expected INT column, got %s", res.ColumnTypes[1])
	}
	s, _ := res.Table.Column("b")
	if s.MissingCount() != 2 {
		t.Errorf("Expected 2 missing values, got %d", s.MissingCount())
	}

	custom := readCSVString(t, "a,b\n1,-\n2,x\n3,y", &Options{NullLiterals: []string{"-"}, TypeInference: true})
	if v := cellsOf(t, custom, "b")[0]; !v.IsMissing() {
		t.Errorf("Expected '-' to be missing, got %v", v)
	}
}

// TestReadCSV_NoTypeInference keeps every column as TEXT.
func TestReadCSV_NoTypeInference(t *testing.T) {
	res := readCSVString(t, "id,n\n1,2\n3,4", &Options{HeaderMode: "present"})
	for i, typ := range res.ColumnTypes {
		if typ != storage.TextType {
			t.Errorf("Column %s: expected TEXT, got %s", res.ColumnNames[i], typ)
		}
	}
}

// TestReadCSV_Heterogeneous rejects a column mixing numbers and text.
func TestReadCSV_Heterogeneous(t *testing.T) {
	_, err := ReadCSV(context.Background(), strings.NewReader("id,val\n1,10\n2,abc\n3,30"), nil)
	if !errors.Is(err, storage.ErrSource) {
		t.Fatalf("Expected ErrSource, got %v", err)
	}
	if !strings.Contains(err.Error(), `"val"`) {
		t.Errorf("Expected the column name in %q", err)
	}
}

// TestReadCSV_BoolWordsInText keeps a text column that happens to contain
// yes and no as TEXT.
func TestReadCSV_BoolWordsInText(t *testing.T) {
	res := readCSVString(t, "name,answer\nAnn,yes\nBob,no\nCid,maybe", nil)
	if res.ColumnTypes[1] != storage.TextType {
		t.Fatalf("Expected TEXT, got %s", res.ColumnTypes[1])
	}
	if v, _ := cellsOf(t, res, "answer")[0].Text(); v != "yes" {
		t.Errorf("Expected yes, got %q", v)
	}
}

// TestReadCSV_FloatWords reads inf and infinity as text in a text column and
// as numbers in a numeric one.
func TestReadCSV_FloatWords(t *testing.T) {
	res := readCSVString(t, "name,mark\nInf,1\nBob,2\nInfinity,-inf", nil)
	if res.ColumnTypes[0] != storage.TextType {
		t.Errorf("Column name: expected TEXT, got %s", res.ColumnTypes[0])
	}
	if res.ColumnTypes[1] != storage.FloatType {
		t.Fatalf("Column mark: expected FLOAT, got %s", res.ColumnTypes[1])
	}
	if f, _ := cellsOf(t, res, "mark")[2].AsFloat(); !math.IsInf(f, -1) {
		t.Errorf("Expected -Inf, got %v", f)
	}
}

// TestReadCSV_MixedAsText loads a mixed column as TEXT and records a note.
func TestReadCSV_MixedAsText(t *testing.T) {
	res := readCSVString(t, "id,val\n1,10\n2,abc\n3,30", &Options{TypeInference: true, MixedAsText: true})
	if res.ColumnTypes[1] != storage.TextType {
		t.Errorf("Expected TEXT, got %s", res.ColumnTypes[1])
	}
	if len(res.Errors) != 1 {
		t.Errorf("Expected one note, got %v", res.Errors)
	}
	if res.ColumnTypes[0] != storage.IntType {
		t.Errorf("Other columns keep their type, got %s", res.ColumnTypes[0])
	}
}

// TestReadCSV_FailureOutsideSample reports a value past the inference sample
// that does not fit the inferred type.
func TestReadCSV_FailureOutsideSample(t *testing.T) {
	_, err := ReadCSV(context.Background(), strings.NewReader("n\n1\n2\nx"), &Options{
		TypeInference: true,
		SampleRecords: 2,
	})
	if !errors.Is(err, storage.ErrSource) {
		t.Fatalf("Expected ErrSource, got %v", err)
	}
}

// TestReadCSV_RaggedRows pads short records and truncates long ones.
func TestReadCSV_RaggedRows(t *testing.T) {
	res := readCSVString(t, "a,b,c\n1,2,3\n4,5\n6,7,8,9", nil)
	if rows, cols := res.Table.Shape(); rows != 3 || cols != 3 {
		t.Fatalf("Expected shape (3, 3), got (%d, %d)", rows, cols)
	}
	if v := cellsOf(t, res, "c")[1]; !v.IsMissing() {
		t.Errorf("Expected padded cell to be missing, got %v", v)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "record 3") {
		t.Errorf("Expected a note about record 3, got %v", res.Errors)
	}
}

// TestReadCSV_HeaderNames normalizes blank and duplicate header names.
func TestReadCSV_HeaderNames(t *testing.T) {
	res := readCSVString(t, " id ,,id\n1,2,3\n4,5,6", &Options{HeaderMode: "present", TypeInference: true})
	want := "id,col_2,id_2"
	if got := strings.Join(res.ColumnNames, ","); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

// TestReadCSV_IndexColumn moves the chosen column into the row index.
func TestReadCSV_IndexColumn(t *testing.T) {
	res := readCSVString(t, "id,name\n10,a\n20,b", &Options{TypeInference: true, IndexColumn: "id"})
	if strings.Join(res.ColumnNames, ",") != "name" {
		t.Errorf("Expected only name to remain, got %v", res.ColumnNames)
	}
	idx := res.Table.Index()
	if !storage.Same(idx[1], storage.Int(20)) {
		t.Errorf("Expected label 20, got %v", idx[1])
	}

	_, err := ReadCSV(context.Background(), strings.NewReader("id,name\n10,a"), &Options{IndexColumn: "nope"})
	if !errors.Is(err, storage.ErrLabelNotFound) {
		t.Errorf("Expected ErrLabelNotFound, got %v", err)
	}
}

// TestReadCSV_Gzip decompresses gzip input transparently.
func TestReadCSV_Gzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte("id,name\n1,a\n2,b\n")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	res, err := ReadCSV(context.Background(), &buf, nil)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if !res.Compressed {
		t.Error("Expected Compressed to be set")
	}
	if res.Table.NumRows() != 2 {
		t.Errorf("Expected 2 rows, got %d", res.Table.NumRows())
	}
}

// TestReadCSV_Empty rejects input without any records.
func TestReadCSV_Empty(t *testing.T) {
	for _, data := range []string{"", "  \n\n"} {
		if _, err := ReadCSV(context.Background(), strings.NewReader(data), nil); !errors.Is(err, storage.ErrSource) {
			t.Errorf("Input %q: expected ErrSource, got %v", data, err)
		}
	}
}

// TestReadCSV_HeaderOnly loads a lone header line as an empty table with
// the header's column names.
func TestReadCSV_HeaderOnly(t *testing.T) {
	res := readCSVString(t, "name,gender,mark\n", nil)
	if !res.HadHeader {
		t.Error("Expected the line to be read as a header")
	}
	if rows, cols := res.Table.Shape(); rows != 0 || cols != 3 {
		t.Fatalf("Expected shape (0, 3), got (%d, %d)", rows, cols)
	}
	if got := strings.Join(res.ColumnNames, ","); got != "name,gender,mark" {
		t.Errorf("Unexpected columns %s", got)
	}

	res = readCSVString(t, "1,2,3\n", nil)
	if res.HadHeader || res.Table.NumRows() != 1 {
		t.Errorf("Expected a numeric line to stay data, got header=%v rows=%d", res.HadHeader, res.Table.NumRows())
	}
}

// TestReadCSV_Cancelled stops on a cancelled context.
func TestReadCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ReadCSV(ctx, strings.NewReader("a\n1\n"), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// TestOptionsValidation rejects out-of-range option values and leaves the
// caller's Options untouched.
func TestOptionsValidation(t *testing.T) {
	bad := []*Options{
		{HeaderMode: "sometimes"},
		{SampleBytes: 4},
	}
	for _, o := range bad {
		_, err := ReadCSV(context.Background(), strings.NewReader("a\n1"), o)
		if err == nil {
			t.Errorf("Expected validation error for %+v", *o)
		}
		if errors.Is(err, storage.ErrSource) {
			t.Errorf("Validation errors are not source errors: %v", err)
		}
	}

	o := &Options{}
	readCSVString(t, "a\n1", o)
	if o.HeaderMode != "" || o.Logger != nil || o.NullLiterals != nil {
		t.Errorf("Caller options were modified: %+v", *o)
	}
}

// TestDefaultOptions checks the documented defaults.
func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	if !o.TypeInference || o.MixedAsText {
		t.Error("Expected type inference on and MixedAsText off")
	}
	if o.HeaderMode != "auto" || o.SampleBytes != 128*1024 || o.SampleRecords != 500 {
		t.Errorf("Unexpected defaults: %+v", *o)
	}
	if string(o.DelimiterCandidates) != ",;\t|" {
		t.Errorf("Unexpected delimiter candidates %q", string(o.DelimiterCandidates))
	}
	if o.Logger == nil {
		t.Error("Expected a default logger")
	}
}
