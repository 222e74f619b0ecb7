// Package wait provides the built-in wait task: it succeeds once the
// configured number of seconds has elapsed since its first poll.
package wait

import (
	"context"
	"time"

	"github.com/conveyor-cd/conveyor/pkg/models"
)

// Context keys recognized by the wait task.
const (
	ContextKeyWaitSeconds = "wait_seconds"
	ContextKeyWaitUntil   = "wait_until"
)

type Task struct {
	clock func() time.Time
}

func NewTask() *Task {
	return &Task{clock: time.Now}
}

func (t *Task) Execute(_ context.Context, stage *models.Stage) (*models.TaskResult, error) {
	now := t.clock()

	if raw, ok := stage.Context[ContextKeyWaitUntil]; ok {
		until, err := time.Parse(time.RFC3339, asString(raw))
		if err == nil && now.Before(until) {
			return &models.TaskResult{Status: models.StatusRunning}, nil
		}

		return &models.TaskResult{Status: models.StatusSucceeded}, nil
	}

	seconds := asSeconds(stage.Context[ContextKeyWaitSeconds])
	if seconds <= 0 {
		return &models.TaskResult{Status: models.StatusSucceeded}, nil
	}

	until := now.Add(time.Duration(seconds) * time.Second)

	return &models.TaskResult{
		Status: models.StatusRunning,
		Outputs: map[string]any{
			ContextKeyWaitUntil: until.Format(time.RFC3339),
		},
	}, nil
}

func asString(value any) string {
	s, _ := value.(string)

	return s
}

// asSeconds tolerates the numeric shapes a JSON round trip produces.
func asSeconds(value any) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
