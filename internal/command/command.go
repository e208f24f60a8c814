// Package command holds the flags and loaders shared by the blockie subcommands.
package command

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/benjaminschreck/go-blockie/pkg/blockie"
	"github.com/benjaminschreck/go-blockie/pkg/script"
)

// Flag names shared by the subcommands.
const (
	FlagTemplate = "template"
	FlagData     = "data"
	FlagGrammar  = "grammar"
	FlagHandlers = "handlers"
	FlagOutput   = "output"
	FlagStrict   = "strict"
	FlagLogLevel = "log-level"
)

// Defaults is the single source of default settings.
var Defaults = blockie.DefaultConfig()

// TemplateFlag is the required template file flag.
func TemplateFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     FlagTemplate,
		Aliases:  []string{"t"},
		Usage:    "template file",
		Required: true,
	}
}

// DataFlag is the fill data flag, a YAML or JSON file.
func DataFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     FlagData,
		Aliases:  []string{"d"},
		Usage:    "fill data file (YAML, or JSON by .json extension)",
		Required: required,
	}
}

// GrammarFlag is the optional grammar configuration flag.
func GrammarFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    FlagGrammar,
		Aliases: []string{"g"},
		Usage:   "tag grammar file (YAML or JSON)",
	}
}

// LogLevelFlag sets the library log level.
func LogLevelFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  FlagLogLevel,
		Value: Defaults.LogLevel,
		Usage: "log level: debug, info, warn, error or off",
	}
}

// ApplyLogLevel applies the --log-level flag to the global configuration.
func ApplyLogLevel(cmd *cli.Command) error {
	if !cmd.IsSet(FlagLogLevel) {
		return nil
	}
	cfg := blockie.GetGlobalConfig()
	cfg.LogLevel = cmd.String(FlagLogLevel)
	if err := cfg.Validate(); err != nil {
		return err
	}
	blockie.SetGlobalConfig(cfg)
	return nil
}

// Engine builds an engine from the --grammar and --strict flags.
func Engine(cmd *cli.Command) (*blockie.Engine, error) {
	cfg := blockie.GetGlobalConfig()
	cfg.StrictMode = cfg.StrictMode || cmd.Bool(FlagStrict)
	opts := []blockie.Option{blockie.WithConfig(cfg)}

	if path := cmd.String(FlagGrammar); path != "" {
		g, err := blockie.LoadGrammar(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, blockie.WithGrammar(g))
	}
	return blockie.NewEngine(opts...), nil
}

// Template parses the file named by --template.
func Template(cmd *cli.Command, engine *blockie.Engine) (*blockie.Template, error) {
	return engine.ParseFile(cmd.String(FlagTemplate))
}

// Data loads the file named by --data and binds the handlers of --handlers.
// A missing --data yields None.
func Data(cmd *cli.Command) (blockie.Value, error) {
	path := cmd.String(FlagData)
	if path == "" {
		return blockie.None, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}
	data, err := blockie.ParseDataBytes(path, content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if hpath := cmd.String(FlagHandlers); hpath != "" {
		handlers, err := script.LoadFile(hpath)
		if err != nil {
			return nil, err
		}
		if data, err = handlers.Bind(data); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// Output opens the file named by --output, or returns the command writer.
// The returned close function must be called when writing is done.
func Output(cmd *cli.Command) (io.Writer, func() error, error) {
	path := cmd.String(FlagOutput)
	if path == "" {
		w := cmd.Root().Writer
		if w == nil {
			w = os.Stdout
		}
		return w, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
