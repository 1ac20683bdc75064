package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/SimonWaldherr/tinyFrame/internal/config"
	"github.com/SimonWaldherr/tinyFrame/internal/engine"
	"github.com/SimonWaldherr/tinyFrame/internal/importer"
)

// Version is set at build time.
var Version = "0.1.0"

// app carries the state shared by all subcommands once the configuration has
// been loaded.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "tinyframe",
		Short: "Inspect and query tabular files",
		Long: `tinyframe loads CSV, TSV, JSON, YAML, Excel, GeoJSON, KML and shapefile
data into an in-memory table and prints summaries, filtered and sorted
views, value counts and aggregates.

Settings are read from tinyframe.yaml (or --config), TINYFRAME_ environment
variables and flags, in increasing precedence.`,
		Version:           Version,
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: ./tinyframe.yaml)")
	pf.String("log-level", "warn", "log level (debug|info|warn|error)")
	pf.String("log-format", "text", "log format (text|json)")
	pf.Int("max-rows", 20, "rows printed before eliding the middle (0 prints all)")
	pf.String("header", "auto", "header detection (auto|present|absent)")
	pf.String("delimiters", ",;\t|", "candidate CSV delimiters")
	pf.StringSlice("null", nil, "values read as missing (replaces the defaults)")
	pf.Bool("infer-types", true, "infer INT, FLOAT and BOOL columns")
	pf.Bool("mixed-as-text", false, "load columns mixing text and numbers as TEXT")
	pf.String("sheet", "", "workbook sheet to load (default: first)")
	pf.String("index-col", "", "column moved into the row index")
	pf.Int("sample-records", 500, "records sampled for detection and type inference")

	_ = root.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = root.RegisterFlagCompletionFunc("header", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "present", "absent"}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(
		a.newInspectCmd(),
		a.newQueryCmd(),
		a.newCountsCmd(),
		a.newAggCmd(),
		a.newConvertCmd(),
		a.newWatchCmd(),
	)
	return root
}

// setup loads the configuration and builds the logger before any subcommand
// runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
		return nil
	}
	cfg, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := cfg.Log.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	if cfg.File != "" {
		logger.Debug("configuration loaded", slog.String("file", cfg.File))
	}
	return nil
}

func (a *app) importOptions() *importer.Options {
	return a.cfg.ImporterOptions(a.logger)
}

// load reads one file into a table.
func (a *app) load(ctx context.Context, path string) (*engine.Table, error) {
	res, err := importer.LoadFile(ctx, path, a.importOptions())
	if err != nil {
		return nil, err
	}
	a.logger.Info("loaded",
		slog.String("path", path),
		slog.String("format", res.Format),
		slog.Int("rows", res.Table.NumRows()),
		slog.Int("cols", res.Table.NumCols()))
	for _, msg := range res.Errors {
		a.logger.Warn("import", slog.String("path", path), slog.String("problem", msg))
	}
	return res.Table, nil
}

func (a *app) maxRows() int { return a.cfg.Display.MaxRows }
