package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"shapemap/internal/definition"
	"shapemap/mapping"
)

var errInvalidDefinitions = errors.New("definition file has errors")

func newCheckCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check [definitions.yaml]",
		Short: "Validate a model definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := definition.LoadFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			diags := definition.Validate(f)
			for _, d := range diags.All() {
				fmt.Fprintf(out, "%s: %s\n", d.Severity, d)
			}

			if diags.HasErrors() {
				return fmt.Errorf("%w: %d error(s)", errInvalidDefinitions, len(diags.Errors))
			}

			models, err := definition.Build(f, mapping.NewRegistry())
			if err != nil {
				return err
			}

			root.logger.Debug("definitions checked", "path", args[0], "models", len(models))

			fmt.Fprintf(out, "ok: %d model(s)\n", len(models))

			return nil
		},
	}
}
