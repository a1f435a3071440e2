package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dukex/fluxrt/pkg/cmd"
	"github.com/dukex/fluxrt/pkg/log"
	"github.com/dukex/fluxrt/pkg/registry"
	"github.com/dukex/fluxrt/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Check that project documents load: shape, module configuration and connections",
		ArgsUsage: "<project.json|project.yaml>...",
		Flags: append([]cli.Flag{
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Fail when a connection cannot be wired",
			},
		}, logFlags()...),
		Action: func(_ context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			if command.NArg() == 0 {
				return errors.New("at least one project document is required")
			}

			reg, err := cmd.NewRegistry(log.WithModule("validate"))
			if err != nil {
				return err
			}

			out := command.Root().Writer

			var errs []error

			for _, path := range command.Args().Slice() {
				if err := validateProject(reg, path, command.Bool("strict"), out); err != nil {
					_, _ = fmt.Fprintf(out, "%s: invalid: %v\n", path, err)
					errs = append(errs, err)
				}
			}

			return errors.Join(errs...)
		},
	}
}

func validateProject(reg *registry.Registry, path string, strict bool, out io.Writer) error {
	project, err := loadProjectFile(path)
	if err != nil {
		return err
	}

	w, err := workflow.Load(project, workflow.Options{Registry: reg, Logger: log.WithModule("validate")})
	if err != nil {
		return err
	}

	skipped := w.Skipped()
	for _, s := range skipped {
		_, _ = fmt.Fprintf(out, "%s: connection %s skipped: %v\n", path, s.Connection.ID(), s.Err)
	}

	if strict && len(skipped) > 0 {
		return fmt.Errorf("%d connection(s) cannot be wired", len(skipped))
	}

	_, _ = fmt.Fprintf(out, "%s: ok (%d modules, %d connections)\n", path, len(w.Modules()), len(w.Connections()))

	return nil
}
