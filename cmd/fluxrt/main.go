// Package main provides the fluxrt command: run, validate and inspect projects.
package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func logFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format (text, json)",
			Value:   "text",
			Sources: cli.EnvVars("LOG_FORMAT"),
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:                  "fluxrt",
		Usage:                 "Run node-based dataflow projects",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			RunCommand(),
			ValidateCommand(),
			InspectCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
