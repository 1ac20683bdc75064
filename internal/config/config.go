// Package config loads tinyframe settings.
//
// Sources are merged in increasing precedence: built-in defaults, a YAML file
// (tinyframe.yaml, or the path given with --config), TINYFRAME_ environment
// variables and explicitly set command-line flags. Nested keys are written
// with "__" in environment variables: TINYFRAME_DISPLAY__MAX_ROWS=50.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/SimonWaldherr/tinyFrame/internal/importer"
)

// EnvPrefix marks environment variables read by Load.
const EnvPrefix = "TINYFRAME_"

// DefaultFiles are looked up in the working directory when no file is given.
var DefaultFiles = []string{"tinyframe.yaml", "tinyframe.yml"}

// Config is the merged configuration.
type Config struct {
	Log     LogConfig     `koanf:"log"`
	Import  ImportConfig  `koanf:"import"`
	Display DisplayConfig `koanf:"display"`

	// File is the configuration file that was read, if any.
	File string `koanf:"-"`
}

// LogConfig selects the slog handler built by NewLogger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// ImportConfig mirrors importer.Options.
type ImportConfig struct {
	NullLiterals  []string `koanf:"null_literals"`
	Header        string   `koanf:"header" validate:"oneof=auto present absent"`
	Delimiters    string   `koanf:"delimiters" validate:"min=1"`
	SampleBytes   int      `koanf:"sample_bytes" validate:"gte=16"`
	SampleRecords int      `koanf:"sample_records" validate:"gte=1"`
	TypeInference bool     `koanf:"type_inference"`
	MixedAsText   bool     `koanf:"mixed_as_text"`
	Sheet         string   `koanf:"sheet"`
	IndexColumn   string   `koanf:"index_column"`
}

// DisplayConfig controls text rendering.
type DisplayConfig struct {
	// MaxRows caps printed rows; 0 prints every row.
	MaxRows int `koanf:"max_rows" validate:"gte=0"`
}

func defaults() map[string]any {
	d := importer.DefaultOptions()
	return map[string]any{
		"log.level":             "warn",
		"log.format":            "text",
		"import.null_literals":  d.NullLiterals,
		"import.header":         d.HeaderMode,
		"import.delimiters":     string(d.DelimiterCandidates),
		"import.sample_bytes":   d.SampleBytes,
		"import.sample_records": d.SampleRecords,
		"import.type_inference": d.TypeInference,
		"import.mixed_as_text":  d.MixedAsText,
		"display.max_rows":      20,
	}
}

// flagKeys maps command-line flag names onto configuration keys. Flags not
// listed here are not configuration.
var flagKeys = map[string]string{
	"log-level":      "log.level",
	"log-format":     "log.format",
	"header":         "import.header",
	"delimiters":     "import.delimiters",
	"null":           "import.null_literals",
	"infer-types":    "import.type_inference",
	"mixed-as-text":  "import.mixed_as_text",
	"sheet":          "import.sheet",
	"index-col":      "import.index_column",
	"sample-records": "import.sample_records",
	"max-rows":       "display.max_rows",
}

var validate = validator.New()

// Load merges defaults, the configuration file, the environment and the
// flags that were set explicitly, then validates the result. cfgFile may be
// empty; a named file that does not exist is an error. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment: TINYFRAME_DISPLAY__MAX_ROWS -> display.max_rows
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags set on the command line
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// findConfigFile returns the file to read. Priority: explicit path >
// tinyframe.yaml > tinyframe.yml.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range DefaultFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ImporterOptions converts the import section for the importer package.
func (c *Config) ImporterOptions(logger *slog.Logger) *importer.Options {
	return &importer.Options{
		NullLiterals:        append([]string{}, c.Import.NullLiterals...),
		HeaderMode:          c.Import.Header,
		DelimiterCandidates: []rune(c.Import.Delimiters),
		SampleBytes:         c.Import.SampleBytes,
		SampleRecords:       c.Import.SampleRecords,
		TypeInference:       c.Import.TypeInference,
		MixedAsText:         c.Import.MixedAsText,
		Sheet:               c.Import.Sheet,
		IndexColumn:         c.Import.IndexColumn,
		Logger:              logger,
	}
}

// NewLogger builds the slog logger described by c, writing to w.
func (c LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch c.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", c.Format)
}
