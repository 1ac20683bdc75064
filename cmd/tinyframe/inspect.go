package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/SimonWaldherr/tinyFrame/internal/engine"
	"github.com/SimonWaldherr/tinyFrame/internal/exporter"
	"github.com/SimonWaldherr/tinyFrame/internal/importer"
)

func (a *app) newInspectCmd() *cobra.Command {
	var head int
	cmd := &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Print shape, types, head, statistics, missing and duplicate counts",
		Example: `  tinyframe inspect students.csv
  tinyframe inspect --head 10 data/*.csv.gz`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := engine.NewCatalog()
			w := cmd.OutOrStdout()
			for i, path := range args {
				name, res, err := importer.OpenFile(cmd.Context(), cat, path, a.importOptions())
				if err != nil {
					return err
				}
				if i > 0 {
					fmt.Fprintln(w)
				}
				if err := a.inspect(w, name, path, res, head); err != nil {
					return err
				}
			}
			a.logger.Debug("inspect done", "tables", cat.Len())
			return nil
		},
	}
	cmd.Flags().IntVarP(&head, "head", "n", 5, "rows shown from the top of each table")
	return cmd
}

func (a *app) inspect(w io.Writer, name, path string, res *importer.Result, head int) error {
	t := res.Table
	rows, cols := t.Shape()
	fmt.Fprintf(w, "== %s (%s) ==\n", name, path)
	fmt.Fprintf(w, "format: %s", res.Format)
	if res.Format == "csv" {
		fmt.Fprintf(w, "  delimiter: %q  header: %t  encoding: %s", res.Delimiter, res.HadHeader, res.Encoding)
	}
	if res.Compressed {
		fmt.Fprint(w, "  gzip")
	}
	fmt.Fprintf(w, "\nshape: (%d, %d)\n", rows, cols)
	for _, msg := range res.Errors {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}

	fmt.Fprintf(w, "\ndtypes\n%s\n", t.Dtypes())

	fmt.Fprintf(w, "\nhead(%d)\n", head)
	if err := exporter.Render(w, t.Head(head), 0); err != nil {
		return err
	}

	desc, err := t.Describe()
	if err != nil {
		return err
	}
	if desc.NumCols() > 0 {
		fmt.Fprint(w, "\ndescribe\n")
		if err := exporter.Render(w, desc, 0); err != nil {
			return err
		}
	} else {
		fmt.Fprint(w, "\ndescribe: no numeric columns\n")
	}

	fmt.Fprintf(w, "\nmissing values\n%s\n", t.CountMissing())
	fmt.Fprintf(w, "\nduplicate rows: %d\n", t.CountDuplicateRows())
	return nil
}
