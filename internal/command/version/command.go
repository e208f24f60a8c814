// Package version provides the version command.
package version

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/urfave/cli/v3"
)

// AppName is the name of the command line tool.
const AppName = "blockie"

// Version is set at build time with -ldflags "-X ...version.Version=v1.2.3".
var Version = ""

// GetVersion returns the build version, falling back to the module version.
func GetVersion() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// Command prints version information
var Command = &cli.Command{
	Name:  "version",
	Usage: "print version information",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		w := cmd.Root().Writer
		_, err := fmt.Fprintf(w, "%s %s\n", AppName, GetVersion())
		return err
	},
}
