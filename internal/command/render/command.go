// Package render provides the render command.
package render

import (
	"github.com/urfave/cli/v3"

	"github.com/benjaminschreck/go-blockie/internal/command"
)

// Command fills a template with a data file
var Command = New()

// New builds the render command.
func New() *cli.Command {
	return &cli.Command{
		Name:   "render",
		Usage:  "fill a template with data and print the content",
		Action: action,
		Flags: []cli.Flag{
			command.TemplateFlag(),
			command.DataFlag(false),
			command.GrammarFlag(),
			&cli.StringFlag{
				Name:  command.FlagHandlers,
				Usage: "Starlark script defining fill handlers",
			},
			&cli.StringFlag{
				Name:    command.FlagOutput,
				Aliases: []string{"o"},
				Usage:   "output file (default stdout)",
			},
			&cli.BoolFlag{
				Name:  command.FlagStrict,
				Value: command.Defaults.StrictMode,
				Usage: "fail on data keys that name no tag",
			},
			command.LogLevelFlag(),
		},
	}
}
