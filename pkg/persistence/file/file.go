// Package file provides file-based persistence for execution documents,
// intended for local development and tests.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/conveyor-cd/conveyor/pkg/models"
	"github.com/conveyor-cd/conveyor/pkg/persistence"
)

// Repository implements persistence.ExecutionRepository on the file
// system: one JSON document per execution under <root>/<type>/<id>.json.
type Repository struct {
	root string
	mu   sync.Mutex
}

func NewRepository(root string) *Repository {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Repository{root: cleanRoot}
}

func (r *Repository) Retrieve(ctx context.Context, execType models.ExecutionType, id string) (*models.Execution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.read(execType, id)
}

func (r *Repository) Store(ctx context.Context, execution *models.Execution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	execution.UpdatedAt = time.Now()

	return r.write(execution)
}

func (r *Repository) StoreStage(ctx context.Context, execType models.ExecutionType, executionID string, stage *models.Stage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	execution, err := r.read(execType, executionID)
	if err != nil {
		return err
	}

	if !execution.ReplaceStage(stage) {
		return fmt.Errorf("%w: %s", persistence.ErrStageNotFound, stage.ID)
	}

	execution.UpdatedAt = time.Now()

	return r.write(execution)
}

func (r *Repository) StoreStatus(ctx context.Context, execType models.ExecutionType, executionID string, status models.Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	execution, err := r.read(execType, executionID)
	if err != nil {
		return err
	}

	execution.Status = status

	switch {
	case status == models.StatusRunning && execution.StartTime == nil:
		execution.StartTime = &at
	case status.IsComplete():
		execution.EndTime = &at
	}

	execution.UpdatedAt = at

	return r.write(execution)
}

func (r *Repository) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(r.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (r *Repository) Close(_ context.Context) error {
	return nil
}

func (r *Repository) path(execType models.ExecutionType, id string) string {
	return filepath.Join(r.root, string(execType), id+".json")
}

func (r *Repository) read(execType models.ExecutionType, id string) (*models.Execution, error) {
	data, err := os.ReadFile(r.path(execType, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", persistence.ErrNotFound, execType, id)
		}

		return nil, err
	}

	var execution models.Execution

	err = json.Unmarshal(data, &execution)
	if err != nil {
		return nil, fmt.Errorf("failed to decode execution %s: %w", id, err)
	}

	return &execution, nil
}

func (r *Repository) write(execution *models.Execution) error {
	dir := filepath.Join(r.root, string(execution.Type))

	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(execution, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(r.path(execution.Type, execution.ID), data, 0o644)
}
