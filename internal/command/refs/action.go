package refs

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"
	yamlv3 "go.yaml.in/yaml/v3"

	"github.com/benjaminschreck/go-blockie/internal/command"
	"github.com/benjaminschreck/go-blockie/pkg/blockie"
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

	var out string
	switch format := cmd.String("format"); format {
	case FormatText:
		out = formatText(tmpl.References())
	case FormatYAML:
		b, err := yamlv3.Marshal(tmpl.References())
		if err != nil {
			return err
		}
		out = string(b)
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	w, closeOutput, err := command.Output(cmd)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, out); err != nil {
		_ = closeOutput()
		return err
	}
	return closeOutput()
}

// formatText prints one reference per line, indented by block depth.
func formatText(refs []blockie.Reference) string {
	var sb strings.Builder
	for _, ref := range refs {
		depth := 0
		if ref.Path != "<root>" {
			depth = strings.Count(ref.Path, ".") + 1
		}
		if ref.Kind == blockie.ReferenceBlock {
			depth--
		}
		indent := strings.Repeat("  ", depth)
		switch ref.Kind {
		case blockie.ReferenceBlock:
			fmt.Fprintf(&sb, "%sblock %s (%d variants)\n", indent, ref.Name, ref.Variants)
		case blockie.ReferenceAuto:
			fmt.Fprintf(&sb, "%sauto (%d variants)\n", indent, ref.Variants)
		case blockie.ReferenceAlign:
			fmt.Fprintf(&sb, "%salign\n", indent)
		default:
			fmt.Fprintf(&sb, "%s%s %s\n", indent, ref.Kind, ref.Name)
		}
	}
	return sb.String()
}
