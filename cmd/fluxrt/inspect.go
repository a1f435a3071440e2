package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dukex/fluxrt/pkg/cmd"
	"github.com/dukex/fluxrt/pkg/log"
	"github.com/dukex/fluxrt/pkg/models"
	"github.com/dukex/fluxrt/pkg/tracing"
	"github.com/dukex/fluxrt/pkg/web"
	"github.com/dukex/fluxrt/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

// Report is printed by the inspect command.
type Report struct {
	Project  string                           `json:"project"`
	Skipped  []string                         `json:"skipped,omitempty"`
	Errors   []web.LogResponse                `json:"errors"`
	Journals map[string][]web.JournalResponse `json:"journals"`
}

func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Aliases:   []string{"i"},
		Usage:     "Send one message through a project and print the resulting traces",
		ArgsUsage: "<project.json|project.yaml>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Usage:    "Input slot receiving the message, as slotId@moduleId",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "data",
				Usage: "JSON data of the message",
				Value: "null",
			},
			&cli.StringFlag{
				Name:  "configuration",
				Usage: "JSON configuration overrides of the message",
			},
		}, logFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			if command.NArg() != 1 {
				return errors.New("exactly one project document is required")
			}

			target, ok := models.ParseSlotRef(command.String("input"))
			if !ok {
				return fmt.Errorf("invalid input %q: expected slotId@moduleId", command.String("input"))
			}

			message, err := parseMessage(command.String("data"), command.String("configuration"))
			if err != nil {
				return err
			}

			report, err := inspect(ctx, command.Args().First(), target, message)
			if err != nil {
				return err
			}

			return writeReport(command.Root().Writer, report)
		},
	}
}

func parseMessage(data, configuration string) (models.Message, error) {
	message := models.Message{Context: map[string]any{}}

	if err := json.Unmarshal([]byte(data), &message.Data); err != nil {
		return message, fmt.Errorf("invalid data: %w", err)
	}

	if configuration != "" {
		if err := json.Unmarshal([]byte(configuration), &message.Configuration); err != nil {
			return message, fmt.Errorf("invalid configuration: %w", err)
		}
	}

	return message, nil
}

func inspect(ctx context.Context, path string, target models.SlotRef, message models.Message) (*Report, error) {
	project, err := loadProjectFile(path)
	if err != nil {
		return nil, err
	}

	logger := log.WithModule("inspect")

	reg, err := cmd.NewRegistry(logger)
	if err != nil {
		return nil, err
	}

	errs := tracing.NewMemorySink()

	w, err := workflow.Load(project, workflow.Options{
		Registry:   reg,
		Logger:     logger,
		ErrorSinks: []tracing.Sink{errs},
	})
	if err != nil {
		return nil, err
	}

	if err := w.Start(ctx); err != nil {
		return nil, err
	}

	defer func() { _ = w.Stop(context.Background()) }()

	if err := w.Inject(target.ModuleID, target.SlotID, message); err != nil {
		return nil, err
	}

	report := &Report{
		Project:  project.ID,
		Errors:   []web.LogResponse{},
		Journals: map[string][]web.JournalResponse{},
	}

	for _, s := range w.Skipped() {
		report.Skipped = append(report.Skipped, fmt.Sprintf("%s: %v", s.Connection.ID(), s.Err))
	}

	for _, entry := range errs.Entries() {
		report.Errors = append(report.Errors, web.LogResponse{Kind: entry.Kind, Text: entry.Text, Data: entry.Data})
	}

	for _, node := range w.Modules() {
		for _, journal := range node.Base().Journals() {
			id := node.Base().ID()
			report.Journals[id] = append(report.Journals[id], web.TransformJournalResponse(journal))
		}
	}

	return report, nil
}

func writeReport(out io.Writer, report *Report) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")

	return encoder.Encode(report)
}
