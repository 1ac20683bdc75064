package importer

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================================
// database/sql Import
// ============================================================================

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ReadSQL runs a query and loads its result set. Column types follow the
// values the driver returns; NULL is missing.
func ReadSQL(ctx context.Context, db Querier, query string, args ...any) (*Result, error) {
	return ReadSQLWith(ctx, db, nil, query, args...)
}

// ReadSQLWith is ReadSQL with explicit options.
func ReadSQLWith(ctx context.Context, db Querier, opts *Options, query string, args ...any) (res *Result, err error) {
	ctx, span := startSpan(ctx, "ReadSQL", attribute.String("db.statement", query))
	defer func() { endSpan(span, res, err) }()

	o, err := prepare(opts)
	if err != nil {
		return nil, err
	}
	res = &Result{Format: "sql", HadHeader: true, Errors: make([]string, 0)}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, sourceErr("sql", fmt.Errorf("query: %w", err))
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, sourceErr("sql", fmt.Errorf("columns: %w", err))
	}
	var data [][]any
	for rows.Next() {
		vals := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, sourceErr("sql", fmt.Errorf("scan row %d: %w", len(data)+1, err))
		}
		data = append(data, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, sourceErr("sql", err)
	}
	o.Logger.Debug("sql result", slog.Int("rows", len(data)), slog.Int("columns", len(names)))

	t, err := tableFromValues(normalizeHeader(names), data, o, res)
	if err != nil {
		return nil, err
	}
	return finish(res, t, o)
}
