package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SimonWaldherr/tinyFrame/internal/exporter"
	"github.com/SimonWaldherr/tinyFrame/internal/importer"
	"github.com/SimonWaldherr/tinyFrame/internal/storage"
	"github.com/SimonWaldherr/tinyFrame/internal/testutil"
)

// workdir switches into a temporary directory holding the fixtures as CSV
// files (students.csv, workouts.csv, sales.csv).
func workdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, name := range testutil.FixtureNames() {
		f, err := os.Create(filepath.Join(dir, name+".csv"))
		require.NoError(t, err)
		require.NoError(t, exporter.WriteCSV(f, testutil.Fixture(t, name), exporter.Options{}))
		require.NoError(t, f.Close())
	}
	return dir
}

// run executes the command line and returns standard output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if errOut.Len() > 0 {
		t.Log(errOut.String())
	}
	return out.String(), err
}

// TestQueryFemaleAboveMean filters on two clauses, one against the column
// mean, and sorts descending.
func TestQueryFemaleAboveMean(t *testing.T) {
	workdir(t)
	out, err := run(t, "query", "students.csv",
		"--where", "gender:eq:female",
		"--where", "mark:gt:mean(mark)",
		"--sort", "mark", "--desc",
		"--cols", "name,mark",
		"--format", "csv")
	require.NoError(t, err)
	assert.Equal(t, "name,mark\nCid,92.0\nFay,88.5\n", out)
}

// TestQueryAny keeps rows matching either clause in their original order.
func TestQueryAny(t *testing.T) {
	workdir(t)
	out, err := run(t, "query", "students.csv",
		"-w", "gender:eq:male", "-w", "mark:lt:60", "--any",
		"--cols", "name", "-f", "csv")
	require.NoError(t, err)
	assert.Equal(t, "name\nBen\nDee\nEli\n", out)
}

// TestQueryInAndHead combines an in-list with --head.
func TestQueryInAndHead(t *testing.T) {
	workdir(t)
	out, err := run(t, "query", "sales.csv", "--where", "region:in:north|east",
		"--cols", "region,units", "--head", "2", "--format", "csv", "--index")
	require.NoError(t, err)
	assert.Equal(t, "index,region,units\n0,north,10\n2,north,10\n", out)
}

// TestQueryMissing selects rows by missing cells.
func TestQueryMissing(t *testing.T) {
	workdir(t)
	out, err := run(t, "query", "sales.csv", "--where", "units:missing", "--cols", "product", "-f", "csv")
	require.NoError(t, err)
	assert.Equal(t, "product\npear\n", out)
}

// TestQueryColumnRef compares two columns of the same table.
func TestQueryColumnRef(t *testing.T) {
	workdir(t)
	out, err := run(t, "query", "workouts.csv", "--where", "calories:gt:@duration", "-f", "json")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, `"calories"`))
}

// TestQueryErrors reports bad clauses and unknown columns.
func TestQueryErrors(t *testing.T) {
	workdir(t)
	_, err := run(t, "query", "students.csv", "--where", "mark:zz:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown comparison operator")

	_, err = run(t, "query", "students.csv", "--where", "nope:eq:1")
	assert.ErrorIs(t, err, storage.ErrLabelNotFound)

	_, err = run(t, "query", "students.csv", "--where", "mark:gt:high")
	assert.ErrorIs(t, err, storage.ErrType)

	_, err = run(t, "query", "students.csv", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

// TestCounts prints value counts in descending order.
func TestCounts(t *testing.T) {
	workdir(t)
	out, err := run(t, "counts", "students.csv", "gender")
	require.NoError(t, err)
	female, male := strings.Index(out, "female"), strings.Index(out, " male")
	require.True(t, female >= 0 && male >= 0, out)
	assert.Less(t, female, male)
	assert.Contains(t, out, "Length: 2")
	assert.NotContains(t, out, "missing:")

	out, err = run(t, "counts", "sales.csv", "units")
	require.NoError(t, err)
	assert.Contains(t, out, "missing: 1")
}

// TestAgg reduces a column, optionally per group.
func TestAgg(t *testing.T) {
	workdir(t)
	out, err := run(t, "agg", "workouts.csv", "calories", "mean")
	require.NoError(t, err)
	assert.Contains(t, out, "mean(calories) = 396.666")

	out, err = run(t, "agg", "students.csv", "mark", "max", "--by", "gender")
	require.NoError(t, err)
	assert.Contains(t, out, "92")
	assert.Contains(t, out, "80")

	_, err = run(t, "agg", "students.csv", "name", "mean")
	assert.ErrorIs(t, err, storage.ErrType)

	_, err = run(t, "agg", "students.csv", "mark", "mode")
	require.Error(t, err)
}

// TestInspect prints every section for each file.
func TestInspect(t *testing.T) {
	workdir(t)
	out, err := run(t, "inspect", "students.csv", "sales.csv", "--head", "2")
	require.NoError(t, err)
	for _, want := range []string{
		"== students (students.csv) ==",
		"shape: (6, 3)",
		"head(2)",
		"describe",
		"missing values",
		"duplicate rows: 0",
		"== sales (sales.csv) ==",
		"duplicate rows: 1",
	} {
		assert.Contains(t, out, want)
	}
}

// TestConvert writes JSON and Excel files that load back to the same table.
func TestConvert(t *testing.T) {
	dir := workdir(t)
	for _, out := range []string{"students.json", "students.xlsx", "students.tsv"} {
		_, err := run(t, "convert", "students.csv", out)
		require.NoError(t, err, out)

		res, err := importer.LoadFile(context.Background(), filepath.Join(dir, out), nil)
		require.NoError(t, err, out)
		assert.Equal(t, []string{"name", "gender", "mark"}, res.Table.Columns(), out)
		assert.Equal(t, 6, res.Table.NumRows(), out)
	}

	stdout, err := run(t, "convert", "workouts.csv", "-", "--to", "markdown")
	require.NoError(t, err)
	assert.Contains(t, stdout, "| calories |")

	_, err = run(t, "convert", "workouts.csv", "workouts.bin")
	require.Error(t, err)
}

// TestConfigFile picks up tinyframe.yaml from the working directory.
func TestConfigFile(t *testing.T) {
	dir := workdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tinyframe.yaml"),
		[]byte("import:\n  index_column: name\n"), 0o644))

	out, err := run(t, "query", "students.csv", "--where", "mark:ge:90", "-f", "csv", "--index")
	require.NoError(t, err)
	assert.Equal(t, "index,gender,mark\nCid,female,92.0\n", out)
}

// TestEnvValidation rejects invalid settings from the environment.
func TestEnvValidation(t *testing.T) {
	workdir(t)
	t.Setenv("TINYFRAME_LOG__LEVEL", "loud")
	_, err := run(t, "counts", "students.csv", "gender")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestParseLiteral(t *testing.T) {
	cases := []struct {
		raw  string
		typ  storage.ColType
		want storage.Value
	}{
		{"60", storage.IntType, storage.Int(60)},
		{"60.5", storage.IntType, storage.Float(60.5)},
		{"60", storage.FloatType, storage.Float(60)},
		{"true", storage.BoolType, storage.Bool(true)},
		{"yes", storage.BoolType, storage.Bool(true)},
		{"No", storage.BoolType, storage.Bool(false)},
		{"60", storage.TextType, storage.Text("60")},
	}
	for _, c := range cases {
		got, err := parseLiteral(c.raw, c.typ)
		require.NoError(t, err, c.raw)
		assert.True(t, storage.Same(c.want, got), "%s as %s: got %v", c.raw, c.typ, got)
	}
	_, err := parseLiteral("x", storage.BoolType)
	assert.ErrorIs(t, err, storage.ErrType)
}

// TestQueryYesNoColumn filters a boolean column loaded from yes/no values
// with the same spelling.
func TestQueryYesNoColumn(t *testing.T) {
	workdir(t)
	require.NoError(t, os.WriteFile("members.csv", []byte("name,active\nAnn,yes\nBob,no\nCid,yes\n"), 0o644))
	out, err := run(t, "query", "members.csv", "--where", "active:eq:yes", "--cols", "name", "-f", "csv")
	require.NoError(t, err)
	assert.Equal(t, "name\nAnn\nCid\n", out)
}

func TestParseAggRef(t *testing.T) {
	ref, ok, err := parseAggRef("median(mark)")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "median(mark)", ref.String())

	_, ok, _ = parseAggRef("Smith (Jr)")
	assert.False(t, ok)

	_, ok, err = parseAggRef("mean()")
	assert.True(t, ok)
	assert.Error(t, err)
}

// TestWatch runs once immediately and once more on the schedule.
func TestWatch(t *testing.T) {
	workdir(t)
	out, err := run(t, "watch", "workouts.csv", "--schedule", "@every 1s", "--times", "2",
		"--where", "calories:gt:385", "--cols", "calories", "-f", "csv")
	require.NoError(t, err)
	assert.Equal(t, "-- run 1 --\ncalories\n420\n390\n-- run 2 --\ncalories\n420\n390\n", out)

	_, err = run(t, "watch", "workouts.csv", "--schedule", "not a schedule")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schedule")

	_, err = run(t, "watch", "missing.csv", "--times", "1")
	assert.ErrorIs(t, err, storage.ErrSource)
}

// TestWatchLoopStopsAtLimit ignores ticks that arrive after the last run and
// does not count failed runs.
func TestWatchLoopStopsAtLimit(t *testing.T) {
	var calls []int
	fail := true
	loop := newWatchLoop(2, func(n int) error {
		calls = append(calls, n)
		if fail {
			fail = false
			return errors.New("reload failed")
		}
		return nil
	})

	require.Error(t, loop.tick())
	require.NoError(t, loop.tick())
	require.NoError(t, loop.tick())
	require.True(t, loop.finished())
	select {
	case <-loop.done:
	default:
		t.Fatal("done should be closed after the last run")
	}

	require.NoError(t, loop.tick())
	assert.Equal(t, []int{1, 1, 2}, calls)
}
