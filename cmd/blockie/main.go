package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/benjaminschreck/go-blockie/internal/command/check"
	"github.com/benjaminschreck/go-blockie/internal/command/refs"
	"github.com/benjaminschreck/go-blockie/internal/command/render"
	"github.com/benjaminschreck/go-blockie/internal/command/version"
)

func main() {
	app := &cli.Command{
		Name:    version.AppName,
		Usage:   "block template engine",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			version.Command,
			render.Command,
			refs.Command,
			check.Command,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
