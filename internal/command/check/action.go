package check

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/benjaminschreck/go-blockie/internal/command"
	"github.com/benjaminschreck/go-blockie/pkg/blockie"
)

// ErrUnknownKeys is returned when the data holds keys the template does not use.
var ErrUnknownKeys = errors.New("data has unknown keys")

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

	w, closeOutput, err := command.Output(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = closeOutput() }()

	checkErr := tmpl.CheckData(data)
	if checkErr == nil {
		_, err := fmt.Fprintln(w, "ok")
		return err
	}

	var unknown []*blockie.UnknownTagReferenceError
	var multi *blockie.MultiError
	if errors.As(checkErr, &multi) {
		for _, e := range multi.Errors() {
			var u *blockie.UnknownTagReferenceError
			if errors.As(e, &u) {
				unknown = append(unknown, u)
			}
		}
	} else {
		var u *blockie.UnknownTagReferenceError
		if !errors.As(checkErr, &u) {
			return checkErr
		}
		unknown = append(unknown, u)
	}

	for _, u := range unknown {
		if _, err := fmt.Fprintf(w, "%s: unknown key %q\n", u.BlockLabel(), u.Name); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: %d", ErrUnknownKeys, len(unknown))
}
