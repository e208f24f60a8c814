// Package check provides the check command.
package check

import (
	"github.com/urfave/cli/v3"

	"github.com/benjaminschreck/go-blockie/internal/command"
)

// Command reports data keys that name no tag of a template
var Command = New()

// New builds the check command.
func New() *cli.Command {
	return &cli.Command{
		Name:   "check",
		Usage:  "report data keys the template does not use",
		Action: action,
		Flags: []cli.Flag{
			command.TemplateFlag(),
			command.DataFlag(true),
			command.GrammarFlag(),
			&cli.StringFlag{
				Name:    command.FlagOutput,
				Aliases: []string{"o"},
				Usage:   "report file (default stdout)",
			},
			command.LogLevelFlag(),
		},
	}
}
