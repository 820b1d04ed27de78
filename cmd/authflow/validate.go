package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/dmitrymomot/statekit/pkg/fsmdef"
)

func validateCmd() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"lint"},
		Usage:     "Validate a machine definition file (.yaml, .yml or .toml)",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Path to the definition; the embedded Session definition is used when omitted",
			},
			&cli.BoolFlag{
				Name:    "print",
				Aliases: []string{"p"},
				Usage:   "Print the normalized definition as YAML",
			},
		},
		Action: validateAction,
	}
}

func validateAction(_ context.Context, cmd *cli.Command) error {
	path := cmd.String("file")
	if path == "" {
		path = cmd.Args().Get(0)
	}

	var (
		def *fsmdef.Definition
		err error
	)
	if path == "" {
		path = "embedded:" + sessionDefinition
		def, err = fsmdef.ParseFS(definitions, sessionDefinition)
	} else {
		def, err = fsmdef.ParseFile(path)
	}
	if err != nil {
		return fmt.Errorf("validation failed for %s: %w", path, err)
	}

	out := cmd.Root().Writer
	if cmd.Bool("print") {
		data, err := def.Marshal()
		if err != nil {
			return fmt.Errorf("render %s: %w", path, err)
		}
		_, err = out.Write(data)
		return err
	}
	return renderSummary(out, path, def)
}

func renderSummary(w io.Writer, path string, def *fsmdef.Definition) error {
	var transitions, guarded int
	for _, st := range def.States {
		for _, ts := range st.On {
			transitions += len(ts)
			for _, t := range ts {
				if len(t.Guards) > 0 {
					guarded++
				}
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Definition %s is valid\n\n", path)
	fmt.Fprintf(&b, "- Machine: %s\n", def.Name)
	fmt.Fprintf(&b, "- Initial: %s\n", def.Initial)
	fmt.Fprintf(&b, "- States: %d\n", len(def.States))
	fmt.Fprintf(&b, "- Transitions: %d (%d guarded)\n", transitions, guarded)

	_, err := io.WriteString(w, b.String())
	return err
}
