package version

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestVersionCommand(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })
	Version = "v1.2.3"

	var out bytes.Buffer
	root := &cli.Command{Name: AppName, Writer: &out, Commands: []*cli.Command{Command}}
	require.NoError(t, root.Run(context.Background(), []string{AppName, "version"}))
	assert.Equal(t, "blockie v1.2.3\n", out.String())
}

func TestGetVersion(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })

	Version = ""
	assert.NotEmpty(t, GetVersion())

	Version = "v0.1.0"
	assert.Equal(t, "v0.1.0", GetVersion())
}
