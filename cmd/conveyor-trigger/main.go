package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/conveyor-cd/conveyor/pkg/cmd"
	"github.com/conveyor-cd/conveyor/pkg/log"
	"github.com/conveyor-cd/conveyor/pkg/messages"
	"github.com/conveyor-cd/conveyor/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:                  "conveyor-trigger",
		EnableShellCompletion: true,
		Usage:                 "Store an execution for a pipeline definition and enqueue its start",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the pipeline definition JSON",
				Required: true,
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

type pipelineDefinition struct {
	Application string            `json:"application" validate:"required"`
	Name        string            `json:"name"        validate:"required,min=3"`
	Type        string            `json:"type"        validate:"omitempty,oneof=pipeline orchestration"`
	Stages      []stageDefinition `json:"stages"      validate:"required,min=1,dive"`
}

type stageDefinition struct {
	RefID   string         `json:"ref_id"`
	Type    string         `json:"type" validate:"required"`
	Name    string         `json:"name"`
	Context map[string]any `json:"context"`
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("conveyor-trigger")

	definition, err := loadDefinition(command.String("file"))
	if err != nil {
		return err
	}

	execution := buildExecution(definition)

	repository := cmd.NewRepository(ctx, logger, command.String("database-url"))
	defer func() {
		err := repository.Close(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close repository", "error", err)
		}
	}()

	err = repository.Store(ctx, execution)
	if err != nil {
		return fmt.Errorf("failed to store execution: %w", err)
	}

	q := cmd.NewQueue(command.String("queue"), "conveyor-trigger", logger)
	defer func() {
		err := q.Close()
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close queue", "error", err)
		}
	}()

	err = q.Push(ctx, &messages.StartExecution{Address: messages.Address{
		ExecutionType: execution.Type,
		ExecutionID:   execution.ID,
	}})
	if err != nil {
		return fmt.Errorf("failed to enqueue execution start: %w", err)
	}

	logger.InfoContext(ctx, "Execution triggered",
		"execution_id", execution.ID,
		"execution_type", execution.Type,
		"application", execution.Application,
		"stages", len(execution.Stages),
	)

	return nil
}

func loadDefinition(path string) (*pipelineDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline definition: %w", err)
	}

	var definition pipelineDefinition

	err = json.Unmarshal(data, &definition)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pipeline definition: %w", err)
	}

	err = validator.New().Struct(&definition)
	if err != nil {
		return nil, fmt.Errorf("invalid pipeline definition: %w", err)
	}

	return &definition, nil
}

func buildExecution(definition *pipelineDefinition) *models.Execution {
	execType := models.ExecutionType(definition.Type)
	if execType == "" {
		execType = models.ExecutionTypePipeline
	}

	execution := &models.Execution{
		ID:          "exec-" + uuid.New().String()[:8],
		Type:        execType,
		Application: definition.Application,
		Name:        definition.Name,
		Status:      models.StatusNotStarted,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	for i, stage := range definition.Stages {
		refID := stage.RefID
		if refID == "" {
			refID = strconv.Itoa(i + 1)
		}

		execution.Stages = append(execution.Stages, &models.Stage{
			ID:      refID,
			RefID:   refID,
			Type:    stage.Type,
			Name:    stage.Name,
			Status:  models.StatusNotStarted,
			Context: stage.Context,
		})
	}

	return execution
}
