package importer

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/SimonWaldherr/tinyFrame/internal/storage"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE students (id INTEGER, name TEXT, mark REAL)`,
		`INSERT INTO students VALUES (1, 'Ann', 70.5), (2, 'Bob', NULL), (3, 'Cid', 50)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("%s: %v", s, err)
		}
	}
	return db
}

func TestReadSQL(t *testing.T) {
	db := openSQLite(t)
	res, err := ReadSQL(context.Background(), db, `SELECT id, name, mark FROM students ORDER BY id`)
	if err != nil {
		t.Fatalf("ReadSQL failed: %v", err)
	}
	if got := strings.Join(res.ColumnNames, ","); got != "id,name,mark" {
		t.Errorf("Unexpected columns %s", got)
	}
	want := []storage.ColType{storage.IntType, storage.TextType, storage.FloatType}
	for i, typ := range want {
		if res.ColumnTypes[i] != typ {
			t.Errorf("Column %s: expected %s, got %s", res.ColumnNames[i], typ, res.ColumnTypes[i])
		}
	}
	if v := cellsOf(t, res, "mark")[1]; !v.IsMissing() {
		t.Errorf("Expected NULL to be missing, got %v", v)
	}
}

func TestReadSQL_ArgsAndIndex(t *testing.T) {
	db := openSQLite(t)
	res, err := ReadSQLWith(context.Background(), db, &Options{IndexColumn: "id"},
		`SELECT id, name FROM students WHERE id > ? ORDER BY id`, 1)
	if err != nil {
		t.Fatalf("ReadSQLWith failed: %v", err)
	}
	if res.Table.NumRows() != 2 {
		t.Fatalf("Expected 2 rows, got %d", res.Table.NumRows())
	}
	if idx := res.Table.Index(); !storage.Same(idx[0], storage.Int(2)) {
		t.Errorf("Expected first label 2, got %v", idx[0])
	}
}

func TestReadSQL_Errors(t *testing.T) {
	db := openSQLite(t)
	if _, err := ReadSQL(context.Background(), db, `SELECT nope FROM missing`); !errors.Is(err, storage.ErrSource) {
		t.Errorf("Expected ErrSource for a bad query, got %v", err)
	}

	// REAL affinity keeps text that does not parse as a number.
	if _, err := db.Exec(`INSERT INTO students VALUES (4, 'Dee', 'high')`); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSQL(context.Background(), db, `SELECT mark FROM students`); !errors.Is(err, storage.ErrSource) {
		t.Errorf("Expected ErrSource for mixed values, got %v", err)
	}
}

func TestReadSQL_Empty(t *testing.T) {
	db := openSQLite(t)
	res, err := ReadSQL(context.Background(), db, `SELECT id, name FROM students WHERE id > 100`)
	if err != nil {
		t.Fatalf("ReadSQL failed: %v", err)
	}
	if rows, cols := res.Table.Shape(); rows != 0 || cols != 2 {
		t.Errorf("Expected shape (0, 2), got (%d, %d)", rows, cols)
	}
}
