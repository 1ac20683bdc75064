package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SimonWaldherr/tinyFrame/internal/engine"
	"github.com/SimonWaldherr/tinyFrame/internal/exporter"
)

type queryFlags struct {
	cols   []string
	where  []string
	any    bool
	sort   []string
	desc   bool
	head   int
	format string
	index  bool
}

func (a *app) newQueryCmd() *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "query FILE",
		Short: "Filter, sort and project a table",
		Long: `Filter rows with --where clauses (all must hold, or any with --any),
sort them, keep the requested columns and print the result.

A clause is column:op:value. Operators: eq ne gt ge lt le, in (values
separated by '|'), missing, present. The value may name another column
(@col) or an aggregate of the loaded table such as mean(mark).`,
		Example: `  tinyframe query students.csv --where gender:eq:female --where 'mark:gt:mean(mark)' --sort mark --desc
  tinyframe query sales.xlsx --cols region,units --where 'region:in:north|south' --format csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out, err := runQuery(t, f)
			if err != nil {
				return err
			}
			a.logger.Debug("query", slog.Int("rows_in", t.NumRows()), slog.Int("rows_out", out.NumRows()))
			return write(cmd.OutOrStdout(), out, f.format, f.index, a.maxRows())
		},
	}
	fl := cmd.Flags()
	fl.StringSliceVar(&f.cols, "cols", nil, "columns to keep, in order")
	fl.StringArrayVarP(&f.where, "where", "w", nil, "filter clause column:op:value (repeatable)")
	fl.BoolVar(&f.any, "any", false, "keep rows matching any clause instead of all")
	fl.StringSliceVar(&f.sort, "sort", nil, "sort columns")
	fl.BoolVar(&f.desc, "desc", false, "sort descending")
	fl.IntVar(&f.head, "head", 0, "keep only the first n rows (0 keeps all)")
	fl.StringVarP(&f.format, "format", "f", "table", "output format (table|csv|json|xml|markdown)")
	fl.BoolVar(&f.index, "index", false, "include row labels in csv, json and xml output")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "csv", "json", "xml", "markdown"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// runQuery applies filter, sort, projection and head in that order, so
// clauses and sort keys may use columns that are not printed.
func runQuery(t *engine.Table, f queryFlags) (*engine.Table, error) {
	if len(f.where) > 0 {
		conds := make([]engine.Cond, len(f.where))
		for i, clause := range f.where {
			c, err := parseWhere(t, clause)
			if err != nil {
				return nil, err
			}
			conds[i] = c
		}
		cond := engine.AllOf(conds...)
		if f.any {
			cond = engine.AnyOf(conds...)
		}
		var err error
		if t, err = t.Where(cond); err != nil {
			return nil, fmt.Errorf("filter %s: %w", cond, err)
		}
	}
	if len(f.sort) > 0 {
		var err error
		if t, err = t.SortBy(f.sort, !f.desc); err != nil {
			return nil, err
		}
	}
	if len(f.cols) > 0 {
		var err error
		if t, err = t.Select(f.cols...); err != nil {
			return nil, err
		}
	}
	if f.head > 0 {
		t = t.Head(f.head)
	}
	return t, nil
}

// write prints t in the named format.
func write(w io.Writer, t *engine.Table, format string, index bool, maxRows int) error {
	opts := exporter.Options{IncludeIndex: index}
	switch strings.ToLower(format) {
	case "table", "":
		return exporter.Render(w, t, maxRows)
	case "csv":
		return exporter.WriteCSV(w, t, opts)
	case "tsv":
		opts.CSVDelimiter = '\t'
		return exporter.WriteCSV(w, t, opts)
	case "json":
		return exporter.WriteJSON(w, t, opts)
	case "xml":
		return exporter.WriteXML(w, t, opts)
	case "markdown", "md":
		return exporter.WriteMarkdown(w, t)
	}
	return fmt.Errorf("unknown output format %q", format)
}
