package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/conveyor-cd/conveyor/pkg/cloud"
	"github.com/conveyor-cd/conveyor/pkg/cmd"
	"github.com/conveyor-cd/conveyor/pkg/log"
	"github.com/conveyor-cd/conveyor/pkg/orchestrator"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:                  "conveyor-orchestrator",
		EnableShellCompletion: true,
		Usage:                 "Consume the execution queue and drive pipeline state",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "orchestrator-id",
				Aliases: []string{"id"},
				Usage:   "Custom orchestrator ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("ORCHESTRATOR_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for execution persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "queue",
				Usage:   "Queue provider (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("QUEUE_PROVIDER"),
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "Address to serve prometheus metrics on (empty disables)",
				Value:   "",
				Sources: cli.EnvVars("METRICS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: run,
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	orchestratorID := command.String("orchestrator-id")
	if orchestratorID == "" {
		orchestratorID = "orchestrator-" + uuid.New().String()[:8]
	}

	logger := log.WithModule("conveyor-orchestrator").With("orchestratorId", orchestratorID)

	logger.InfoContext(ctx, "Initializing Conveyor Orchestrator")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	q := cmd.NewQueue(command.String("queue"), "conveyor-orchestrator", logger)
	defer func() {
		err := q.Close()
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close queue", "error", err)
		}
	}()

	publisher := cmd.NewEventPublisher(command.String("queue"), logger)

	repository := cmd.NewRepository(ctx, logger, command.String("database-url"))
	defer func() {
		err := repository.Close(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close repository", "error", err)
		}
	}()

	// The cloud client enumerating live server groups is provided by the
	// embedding deployment; without one every deploy plans as a first
	// deploy.
	reg := cmd.NewRegistry(logger, cloud.StaticResolver{})

	if addr := command.String("metrics-addr"); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())

			err := http.ListenAndServe(addr, mux)
			if err != nil {
				logger.ErrorContext(ctx, "Metrics server stopped", "error", err)
			}
		}()
	}

	o := orchestrator.New(repository, q, publisher, reg, logger)
	o.RegisterHandlers()

	err := q.Subscribe(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to subscribe to queue", "error", err)

		return err
	}

	logger.InfoContext(ctx, "Orchestrator started")

	<-ctx.Done()

	logger.Info("Orchestrator shutting down")

	return nil
}
