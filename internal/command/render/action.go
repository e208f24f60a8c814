package render

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/benjaminschreck/go-blockie/internal/command"
)

func action(ctx context.Context, cmd *cli.Command) error {
	if err := command.ApplyLogLevel(cmd); err != nil {
		return err
	}

	engine, err := command.Engine(cmd)
	if err != nil {
		return err
	}
	tmpl, err := command.Template(cmd, engine)
	if err != nil {
		return err
	}
	data, err := command.Data(cmd)
	if err != nil {
		return err
	}

	blk := engine.NewBlock(tmpl)
	if cmd.IsSet(command.FlagData) {
		if err := blk.FillValue(data); err != nil {
			return err
		}
	}
	content, err := blk.Content()
	if err != nil {
		return err
	}

	w, closeOutput, err := command.Output(cmd)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, content); err != nil {
		_ = closeOutput()
		return fmt.Errorf("failed to write content: %w", err)
	}
	return closeOutput()
}
