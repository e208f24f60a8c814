// Package refs provides the refs command.
package refs

import (
	"github.com/urfave/cli/v3"

	"github.com/benjaminschreck/go-blockie/internal/command"
)

// Format names accepted by --format.
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// Command prints the blocks and variables of a template
var Command = New()

// New builds the refs command.
func New() *cli.Command {
	return &cli.Command{
		Name:   "refs",
		Usage:  "list the blocks and variables of a template",
		Action: action,
		Flags: []cli.Flag{
			command.TemplateFlag(),
			command.GrammarFlag(),
			&cli.StringFlag{
				Name:  "format",
				Value: FormatText,
				Usage: "output format: text or yaml",
			},
			&cli.StringFlag{
				Name:    command.FlagOutput,
				Aliases: []string{"o"},
				Usage:   "output file (default stdout)",
			},
			command.LogLevelFlag(),
		},
	}
}
