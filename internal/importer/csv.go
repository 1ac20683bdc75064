package importer

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ============================================================================
// CSV/TSV Import
// ============================================================================

// ReadCSV loads delimited text (CSV, TSV, semicolon or pipe separated).
//
// The delimiter, the presence of a header row and the text encoding are
// detected from a sample of the input unless fixed through opts. Gzip input
// is decompressed transparently. Records shorter than the header are padded
// with missing values; longer ones are truncated and reported in
// Result.Errors.
func ReadCSV(ctx context.Context, src io.Reader, opts *Options) (res *Result, err error) {
	ctx, span := startSpan(ctx, "ReadCSV")
	defer func() { endSpan(span, res, err) }()

	o, err := prepare(opts)
	if err != nil {
		return nil, err
	}
	res = &Result{Format: "csv", Errors: make([]string, 0)}

	// Step 1: Handle GZIP compression if present
	r, gz, err := maybeGzip(src)
	if err != nil {
		return nil, sourceErr("csv", err)
	}
	res.Compressed = gz

	// Step 2: Detect encoding and decode to UTF-8
	data, enc, err := decodeAll(r)
	if err != nil {
		return nil, sourceErr("csv", err)
	}
	res.Encoding = enc
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, sourceErr("csv", errors.New("empty input"))
	}

	// Step 3: Sample data for delimiter and header detection
	sample := data
	truncated := len(sample) > o.SampleBytes
	if truncated {
		sample = sample[:o.SampleBytes]
	}
	lines := splitUniversal(string(sample))
	if truncated && len(lines) > 1 {
		lines = lines[:len(lines)-1]
	}
	delim := detectDelimiter(lines, o.DelimiterCandidates)
	res.Delimiter = delim
	hasHeader := decideHeader(parseRecords(lines, delim, o.SampleRecords), o.HeaderMode)
	res.HadHeader = hasHeader
	o.Logger.Debug("csv detection",
		slog.String("encoding", enc),
		slog.Bool("gzip", gz),
		slog.String("delimiter", strconv.QuoteRune(delim)),
		slog.Bool("header", hasHeader),
	)
	span.SetAttributes(
		attribute.String("csv.encoding", enc),
		attribute.String("csv.delimiter", string(delim)),
		attribute.Bool("csv.header", hasHeader),
	)

	// Step 4: Read every record with the detected settings
	csvr := csv.NewReader(bytes.NewReader(data))
	csvr.Comma = delim
	csvr.FieldsPerRecord = -1 // allow ragged rows
	csvr.LazyQuotes = true
	csvr.TrimLeadingSpace = true

	var records [][]string
	for {
		if len(records)%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := csvr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, sourceErr("csv", err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, sourceErr("csv", errors.New("no records"))
	}

	// Step 5: Column names from the header or synthesized
	var names []string
	if hasHeader {
		names = normalizeHeader(records[0])
		records = records[1:]
	} else {
		width := 0
		for _, rec := range records {
			width = max(width, len(rec))
		}
		names = generateColumnNames(width)
	}
	for i, rec := range records {
		if len(rec) > len(names) {
			res.Errors = append(res.Errors, fmt.Sprintf("record %d: %d fields, expected %d; extra fields dropped", i+1, len(rec), len(names)))
		}
	}

	// Step 6: Infer types and build the table
	t, err := tableFromRecords(names, records, o, res)
	if err != nil {
		return nil, err
	}
	return finish(res, t, o)
}

// ============================================================================
// Helper Functions - Encoding & Detection
// ============================================================================

func maybeGzip(r io.Reader) (io.Reader, bool, error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(2)
	if len(magic) == 2 && magic[0] == 0x1F && magic[1] == 0x8B {
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, true, fmt.Errorf("gzip: %w", err)
		}
		return gr, true, nil
	}
	return br, false, nil
}

func detectEncoding(b []byte) (enc string, hasUTF8BOM bool) {
	switch {
	case len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF:
		return "utf-8-bom", true
	case len(b) >= 2 && b[0] == 0xFF && b[1] == 0xFE:
		return "utf-16le", false
	case len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF:
		return "utf-16be", false
	}
	return "utf-8", false
}

// decodeAll reads r to the end as UTF-8, converting UTF-16 input and
// dropping any byte order mark.
func decodeAll(r io.Reader) ([]byte, string, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(3)
	enc, hasBOM := detectEncoding(head)

	var rr io.Reader = br
	switch enc {
	case "utf-16le":
		rr = transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder())
	case "utf-16be":
		rr = transform.NewReader(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder())
	default:
		if hasBOM {
			if _, err := br.Discard(3); err != nil {
				return nil, enc, fmt.Errorf("discard UTF-8 BOM: %w", err)
			}
		}
	}
	data, err := io.ReadAll(rr)
	if err != nil {
		return nil, enc, fmt.Errorf("read %s stream: %w", enc, err)
	}
	return data, enc, nil
}

func splitUniversal(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	out := strings.Split(s, "\n")
	if len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

func parseRecords(lines []string, delim rune, maxRecs int) [][]string {
	var out [][]string
	for _, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		out = append(out, naiveSplitOutsideQuotes(ln, delim))
		if maxRecs > 0 && len(out) >= maxRecs {
			break
		}
	}
	return out
}

// detectDelimiter picks the candidate giving the most consistent field count
// across the sampled lines, preferring more fields on ties. Candidates that
// never split a line are skipped; ',' is the fallback.
func detectDelimiter(lines []string, cands []rune) rune {
	var (
		best       rune
		bestStd    = math.Inf(1)
		bestFields int
	)
	for _, cand := range cands {
		var counts []int
		for _, ln := range lines {
			if strings.TrimSpace(ln) == "" {
				continue
			}
			if len(counts) >= 200 {
				break
			}
			counts = append(counts, countDelimsOutsideQuotes(ln, cand)+1)
		}
		if len(counts) == 0 {
			continue
		}
		sd := stdev(counts)
		fields := mode(counts)
		if fields <= 1 {
			continue
		}
		if sd < bestStd || (math.Abs(sd-bestStd) < 1e-9 && fields > bestFields) {
			best, bestStd, bestFields = cand, sd, fields
		}
	}
	if best == 0 {
		if len(cands) == 1 {
			return cands[0]
		}
		return ','
	}
	return best
}

func countDelimsOutsideQuotes(ln string, delim rune) int {
	inQ := false
	count := 0
	for i := 0; i < len(ln); {
		r, w := utf8.DecodeRuneInString(ln[i:])
		i += w
		switch {
		case r == '"':
			if inQ && strings.HasPrefix(ln[i:], `"`) {
				i++
				continue
			}
			inQ = !inQ
		case !inQ && r == delim:
			count++
		}
	}
	return count
}

func naiveSplitOutsideQuotes(ln string, delim rune) []string {
	var out []string
	var sb strings.Builder
	inQ := false
	for i := 0; i < len(ln); {
		r, w := utf8.DecodeRuneInString(ln[i:])
		i += w
		switch {
		case r == '"' && inQ:
			if strings.HasPrefix(ln[i:], `"`) {
				i++
				sb.WriteRune('"')
				continue
			}
			inQ = false
		case r == '"' && sb.Len() == 0:
			inQ = true
		case !inQ && r == delim:
			out = append(out, sb.String())
			sb.Reset()
		default:
			sb.WriteRune(r)
		}
	}
	return append(out, sb.String())
}

// decideHeader treats the first record as a header when at least half of
// the columns hold a non-numeric first value above mostly numeric data, or
// when every first value is non-numeric text that never reappears below it.
// A lone record is a header when its fields are distinct non-numeric text.
func decideHeader(records [][]string, mode string) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "present":
		return true
	case "absent":
		return false
	}
	switch len(records) {
	case 0:
		return false
	case 1:
		return allTextAndUnique(records[0], nil) && distinct(records[0])
	}

	first, body := records[0], records[1:]
	headerish := 0
	for c, head := range first {
		dataNum, rows := 0, 0
		for _, r := range body {
			if c >= len(r) {
				continue
			}
			if looksNumeric(r[c]) {
				dataNum++
			}
			rows++
		}
		if rows > 0 && !looksNumeric(head) && float64(dataNum)/float64(rows) > 0.6 {
			headerish++
		}
	}
	if float64(headerish)/float64(len(first)) >= 0.5 {
		return true
	}
	return allTextAndUnique(first, body)
}

// allTextAndUnique reports whether every value of first is non-empty,
// non-numeric and absent from the same column of body.
func allTextAndUnique(first []string, body [][]string) bool {
	for c, head := range first {
		if strings.TrimSpace(head) == "" || looksNumeric(head) {
			return false
		}
		for _, r := range body {
			if c < len(r) && r[c] == head {
				return false
			}
		}
	}
	return true
}

// distinct reports whether no two fields are equal after trimming.
func distinct(fields []string) bool {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if _, ok := seen[f]; ok {
			return false
		}
		seen[f] = struct{}{}
	}
	return true
}

func looksNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || isFloatWord(s) {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func stdev(vals []int) float64 {
	var sum float64
	for _, v := range vals {
		sum += float64(v)
	}
	avg := sum / float64(len(vals))
	var ss float64
	for _, v := range vals {
		d := float64(v) - avg
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)))
}

// mode returns the most frequent value, the larger one on ties.
func mode(vals []int) int {
	freq := map[int]int{}
	for _, v := range vals {
		freq[v]++
	}
	keys := make([]int, 0, len(freq))
	for v := range freq {
		keys = append(keys, v)
	}
	slices.SortFunc(keys, func(a, b int) int {
		if freq[a] != freq[b] {
			return freq[b] - freq[a]
		}
		return b - a
	})
	return keys[0]
}

// normalizeHeader NFC-normalizes and trims header names, names blank ones
// col_N and suffixes repeats with _2, _3, ...
func normalizeHeader(h []string) []string {
	out := make([]string, len(h))
	used := make(map[string]bool, len(h))
	for i, s := range h {
		s = norm.NFC.String(strings.TrimSpace(s))
		if s == "" {
			s = fmt.Sprintf("col_%d", i+1)
		}
		base := s
		for n := 2; used[s]; n++ {
			s = fmt.Sprintf("%s_%d", base, n)
		}
		used[s] = true
		out[i] = s
	}
	return out
}

func generateColumnNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("col_%d", i+1)
	}
	return out
}
