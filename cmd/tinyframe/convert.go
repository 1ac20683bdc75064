package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SimonWaldherr/tinyFrame/internal/exporter"
)

// formatByExt maps output file extensions onto exporter formats.
var formatByExt = map[string]string{
	".csv":  "csv",
	".tsv":  "tsv",
	".json": "json",
	".xml":  "xml",
	".xlsx": "xlsx",
	".md":   "markdown",
}

func (a *app) newConvertCmd() *cobra.Command {
	var (
		to     string
		pretty bool
		index  bool
		sheet  string
	)
	cmd := &cobra.Command{
		Use:   "convert FILE OUT",
		Short: "Write a table in another format",
		Long: `Load FILE and write it to OUT. The output format follows the extension of
OUT (.csv .tsv .json .xml .xlsx .md) unless --to is given. OUT "-" writes
to standard output and needs --to.`,
		Example: `  tinyframe convert students.xlsx students.csv
  tinyframe convert places.shp - --to json --pretty`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			in, out := args[0], args[1]
			format := to
			if format == "" {
				format = formatByExt[strings.ToLower(filepath.Ext(out))]
			}
			if format == "" {
				return fmt.Errorf("cannot tell the output format of %q; use --to", out)
			}

			t, err := a.load(cmd.Context(), in)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "-" {
				f, ferr := os.Create(out)
				if ferr != nil {
					return ferr
				}
				defer func() {
					if cerr := f.Close(); err == nil {
						err = cerr
					}
				}()
				w = f
			}

			opts := exporter.Options{PrettyJSON: pretty, IncludeIndex: index, Sheet: sheet}
			switch format {
			case "json":
				return exporter.WriteJSON(w, t, opts)
			case "xlsx", "excel":
				return exporter.WriteExcel(w, t, opts)
			}
			return write(w, t, format, index, 0)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&to, "to", "", "output format (csv|tsv|json|xml|xlsx|markdown)")
	fl.BoolVar(&pretty, "pretty", false, "indent JSON output")
	fl.BoolVar(&index, "index", false, "write row labels as the first column")
	fl.StringVar(&sheet, "out-sheet", "", "worksheet name for xlsx output")
	return cmd
}
