package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/conveyor-cd/conveyor/pkg/models"
	"github.com/conveyor-cd/conveyor/pkg/persistence"
)

func (r *Repository) Retrieve(ctx context.Context, execType models.ExecutionType, id string) (*models.Execution, error) {
	var document []byte

	err := r.db.QueryRowContext(ctx,
		"SELECT document FROM executions WHERE type = $1 AND id = $2",
		string(execType), id,
	).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s/%s", persistence.ErrNotFound, execType, id)
		}

		return nil, fmt.Errorf("failed to query execution: %w", err)
	}

	var execution models.Execution

	err = json.Unmarshal(document, &execution)
	if err != nil {
		return nil, fmt.Errorf("failed to decode execution %s: %w", id, err)
	}

	return &execution, nil
}

func (r *Repository) Store(ctx context.Context, execution *models.Execution) error {
	execution.UpdatedAt = time.Now()

	document, err := json.Marshal(execution)
	if err != nil {
		return fmt.Errorf("failed to encode execution %s: %w", execution.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO executions (id, type, application, status, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (type, id) DO UPDATE SET
			application = EXCLUDED.application,
			status = EXCLUDED.status,
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
	`, execution.ID, string(execution.Type), execution.Application,
		string(execution.Status), document, execution.CreatedAt, execution.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to store execution %s: %w", execution.ID, err)
	}

	return nil
}

// StoreStage replaces one stage of the persisted document wholesale. The
// row is locked for the read-modify-write so two stage writes to the
// same execution cannot interleave.
func (r *Repository) StoreStage(ctx context.Context, execType models.ExecutionType, executionID string, stage *models.Stage) error {
	return r.withDocument(ctx, execType, executionID, func(execution *models.Execution) error {
		if !execution.ReplaceStage(stage) {
			return fmt.Errorf("%w: %s", persistence.ErrStageNotFound, stage.ID)
		}

		return nil
	})
}

func (r *Repository) StoreStatus(ctx context.Context, execType models.ExecutionType, executionID string, status models.Status, at time.Time) error {
	return r.withDocument(ctx, execType, executionID, func(execution *models.Execution) error {
		execution.Status = status

		switch {
		case status == models.StatusRunning && execution.StartTime == nil:
			execution.StartTime = &at
		case status.IsComplete():
			execution.EndTime = &at
		}

		return nil
	})
}

func (r *Repository) withDocument(ctx context.Context, execType models.ExecutionType, executionID string, mutate func(*models.Execution) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var document []byte

	err = tx.QueryRowContext(ctx,
		"SELECT document FROM executions WHERE type = $1 AND id = $2 FOR UPDATE",
		string(execType), executionID,
	).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s/%s", persistence.ErrNotFound, execType, executionID)
		}

		return fmt.Errorf("failed to query execution: %w", err)
	}

	var execution models.Execution

	err = json.Unmarshal(document, &execution)
	if err != nil {
		return fmt.Errorf("failed to decode execution %s: %w", executionID, err)
	}

	err = mutate(&execution)
	if err != nil {
		return err
	}

	execution.UpdatedAt = time.Now()

	updated, err := json.Marshal(&execution)
	if err != nil {
		return fmt.Errorf("failed to encode execution %s: %w", executionID, err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE executions SET status = $3, document = $4, updated_at = $5
		WHERE type = $1 AND id = $2
	`, string(execType), executionID, string(execution.Status), updated, execution.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update execution %s: %w", executionID, err)
	}

	return tx.Commit()
}
