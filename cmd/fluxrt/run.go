package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dukex/fluxrt/pkg/cmd"
	"github.com/dukex/fluxrt/pkg/log"
	"github.com/dukex/fluxrt/pkg/otelhelper"
	"github.com/dukex/fluxrt/pkg/tracing"
	"github.com/dukex/fluxrt/pkg/workflow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	cli "github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

func RunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Run projects and serve the inspection API",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Project storage: a directory, file://<dir> or redis://<host>",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "project",
				Usage:   "Project to run: a stored project id or a JSON/YAML document; every stored project when empty",
				Sources: cli.EnvVars("PROJECT"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus publishing module logs (gochannel, kafka); none when empty",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringSliceFlag{
				Name:    "kafka-brokers",
				Usage:   "Kafka brokers of the kafka event bus",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export execution traces through OTLP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
		}, logFlags()...),
		Action: run,
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))

	logger := log.WithModule("runtime")
	logger.Info("Initializing fluxrt")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry, err := cmd.NewRegistry(logger)
	if err != nil {
		return err
	}

	persistence, err := cmd.NewPersistence(command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(context.Background()); err != nil {
			logger.Error("Failed to close persistence", "error", err)
		}
	}()

	eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.StringSlice("kafka-brokers"), logger)
	if err != nil {
		return err
	}

	if eventBus != nil {
		defer func() {
			if err := eventBus.Close(); err != nil {
				logger.Error("Failed to close event bus", "error", err)
			}
		}()
	}

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	options := workflow.Options{
		Registry:   registry,
		Logger:     logger,
		Registerer: metrics,
		ErrorSinks: []tracing.Sink{log.NewSlogSink(logger)},
		EventBus:   eventBus,
	}

	if command.Bool("tracing") {
		tracer, shutdown, err := otelhelper.NewTracer(ctx, "fluxrt")
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}

		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error("Failed to shutdown tracer provider", "error", err)
			}
		}()

		options.Tracer = tracer
	}

	repository := workflow.NewRepository(persistence)
	manager := workflow.NewManager(repository, options)

	if err := startProjects(ctx, manager, command.String("project")); err != nil {
		return err
	}

	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := manager.StopAll(stopCtx); err != nil {
			logger.Error("Failed to stop projects", "error", err)
		}
	}()

	app := NewAPI(logger, repository, manager, registry, metrics).App()

	served := make(chan error, 1)

	go func() {
		served <- app.Listen(":" + strconv.Itoa(command.Int("port")))
	}()

	select {
	case err := <-served:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return nil
}

func startProjects(ctx context.Context, manager *workflow.Manager, ref string) error {
	switch {
	case ref == "":
		return manager.RunAll(ctx)
	case isProjectFile(ref):
		project, err := loadProjectFile(ref)
		if err != nil {
			return err
		}

		_, err = manager.RunProject(ctx, project)

		return err
	default:
		_, err := manager.Run(ctx, ref)

		return err
	}
}
