package testutil

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/SimonWaldherr/tinyFrame/internal/engine"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

// Structure mirrors fixtures.yaml
type fixturesFile struct {
	Tables map[string]struct {
		Cols []string `yaml:"cols"`
		Rows [][]any  `yaml:"rows"`
	} `yaml:"tables"`
}

var (
	fixturesOnce sync.Once
	fixtures     fixturesFile
	fixturesErr  error
)

func loadFixtures() (fixturesFile, error) {
	fixturesOnce.Do(func() {
		fixturesErr = yaml.Unmarshal(fixturesYAML, &fixtures)
	})
	return fixtures, fixturesErr
}

// FixtureNames lists the available fixture tables, sorted.
func FixtureNames() []string {
	f, err := loadFixtures()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(f.Tables))
	for n := range f.Tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// BuildFixture constructs the named fixture table:
//
//	students  name, gender, mark (FLOAT)        6 rows
//	workouts  calories, duration (INT)          3 rows
//	sales     region, product, units, price,    6 rows with missing cells
//	          shipped                           and one duplicate row
func BuildFixture(name string) (*engine.Table, error) {
	f, err := loadFixtures()
	if err != nil {
		return nil, fmt.Errorf("fixtures: %w", err)
	}
	spec, ok := f.Tables[name]
	if !ok {
		return nil, fmt.Errorf("fixtures: no table %q", name)
	}
	data := make(map[string]any, len(spec.Cols))
	for c, col := range spec.Cols {
		vals := make([]any, len(spec.Rows))
		for r, row := range spec.Rows {
			if c >= len(row) {
				return nil, fmt.Errorf("fixtures: %s row %d has %d cells, want %d", name, r+1, len(row), len(spec.Cols))
			}
			vals[r] = row[c]
		}
		data[col] = vals
	}
	return engine.FromMap(data, spec.Cols...)
}

// Fixture is BuildFixture for tests: it fails t on error.
func Fixture(t testing.TB, name string) *engine.Table {
	t.Helper()
	tbl, err := BuildFixture(name)
	if err != nil {
		t.Fatalf("fixture %s: %v", name, err)
	}
	return tbl
}
