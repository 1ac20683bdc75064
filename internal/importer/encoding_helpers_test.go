package importer

import (
	"bytes"
	"context"
	"encoding/binary"
	"strings"
	"testing"
	"unicode/utf16"
)

func utf16Bytes(s string, order binary.ByteOrder) []byte {
	var buf bytes.Buffer
	units := append([]uint16{0xFEFF}, utf16.Encode([]rune(s))...)
	for _, u := range units {
		_ = binary.Write(&buf, order, u)
	}
	return buf.Bytes()
}

func TestDetectEncoding(t *testing.T) {
	// UTF-8 BOM
	enc, has := detectEncoding([]byte{0xEF, 0xBB, 0xBF, 'a', 'b'})
	if enc != "utf-8-bom" || !has {
		t.Fatalf("detectEncoding utf8-bom failed: %v %v", enc, has)
	}

	// UTF-16LE BOM
	enc, has = detectEncoding([]byte{0xFF, 0xFE, 0x61, 0x00})
	if enc != "utf-16le" || has {
		t.Fatalf("detectEncoding utf16le failed: %v %v", enc, has)
	}

	enc, _ = detectEncoding([]byte{0xFE, 0xFF, 0x00, 0x61})
	if enc != "utf-16be" {
		t.Fatalf("detectEncoding utf16be failed: %v", enc)
	}

	enc, has = detectEncoding([]byte("ab"))
	if enc != "utf-8" || has {
		t.Fatalf("detectEncoding plain failed: %v %v", enc, has)
	}
}

func TestReadCSV_Encodings(t *testing.T) {
	const text = "id,name\n1,Zoë\n2,Ann\n"
	cases := map[string][]byte{
		"utf-8-bom": append([]byte{0xEF, 0xBB, 0xBF}, text...),
		"utf-16le":  utf16Bytes(text, binary.LittleEndian),
		"utf-16be":  utf16Bytes(text, binary.BigEndian),
	}
	for enc, data := range cases {
		res, err := ReadCSV(context.Background(), bytes.NewReader(data), nil)
		if err != nil {
			t.Fatalf("%s: ReadCSV failed: %v", enc, err)
		}
		if res.Encoding != enc {
			t.Errorf("%s: detected %s", enc, res.Encoding)
		}
		if res.ColumnNames[0] != "id" {
			t.Errorf("%s: BOM leaked into the header: %q", enc, res.ColumnNames[0])
		}
		if v, _ := cellsOf(t, res, "name")[0].Text(); v != "Zoë" {
			t.Errorf("%s: expected Zoë, got %q", enc, v)
		}
	}
}

func TestDetectDelimiter(t *testing.T) {
	cands := []rune{',', ';', '\t', '|'}
	cases := []struct {
		lines []string
		want  rune
	}{
		{[]string{"a;b;c", "1;2;3", "4;5;6"}, ';'},
		{[]string{"a,b", `"x;y",2`, `"z;w",3`}, ','},
		{[]string{"a|b", "1|2"}, '|'},
		{[]string{"single", "column"}, ','},
	}
	for _, tc := range cases {
		if got := detectDelimiter(tc.lines, cands); got != tc.want {
			t.Errorf("detectDelimiter(%q) = %q, want %q", tc.lines, got, tc.want)
		}
	}
	if got := detectDelimiter([]string{"abc"}, []rune{'\t'}); got != '\t' {
		t.Errorf("Expected the sole candidate, got %q", got)
	}
}

func TestDecideHeader(t *testing.T) {
	cases := []struct {
		name    string
		records [][]string
		mode    string
		want    bool
	}{
		{"numeric body", [][]string{{"id", "score"}, {"1", "2.5"}, {"2", "3.5"}}, "auto", true},
		{"text body", [][]string{{"city", "country"}, {"Paris", "France"}, {"Rome", "Italy"}}, "auto", true},
		{"repeated value", [][]string{{"a", "b"}, {"a", "c"}}, "auto", false},
		{"numeric first row", [][]string{{"1", "2"}, {"3", "4"}}, "auto", false},
		{"single text record", [][]string{{"a", "b"}}, "auto", true},
		{"single numeric record", [][]string{{"a", "2"}}, "auto", false},
		{"single record with blank", [][]string{{"a", ""}}, "auto", false},
		{"single record repeated", [][]string{{"a", "a"}}, "auto", false},
		{"forced present", [][]string{{"1", "2"}}, "present", true},
		{"forced absent", [][]string{{"id"}, {"1"}}, "absent", false},
	}
	for _, tc := range cases {
		if got := decideHeader(tc.records, tc.mode); got != tc.want {
			t.Errorf("%s: decideHeader = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestNormalizeHeader(t *testing.T) {
	got := normalizeHeader([]string{" a ", "", "a", "a", "é"})
	want := []string{"a", "col_2", "a_2", "a_3", "é"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("normalizeHeader = %q, want %q", got, want)
	}
}

func TestSplitOutsideQuotes(t *testing.T) {
	got := naiveSplitOutsideQuotes(`a,"b,c","d ""q"""`, ',')
	want := []string{"a", "b,c", `d "q"`}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("naiveSplitOutsideQuotes = %q, want %q", got, want)
	}
	if n := countDelimsOutsideQuotes(`a,"b,c",d`, ','); n != 2 {
		t.Errorf("countDelimsOutsideQuotes = %d, want 2", n)
	}
}

func TestSplitUniversal(t *testing.T) {
	got := splitUniversal("a\r\nb\rc\n")
	if strings.Join(got, "|") != "a|b|c" {
		t.Errorf("splitUniversal = %q", got)
	}
}
