package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/attestable/tee-agent-registry/metrics"
)

// TaskStatus is the terminal status of a processed task.
type TaskStatus string

const (
	TaskCompleted TaskStatus = "completed"
	TaskError     TaskStatus = "error"
)

// Task is a unit of work submitted to the agent. ID correlates the task to
// its result; an empty ID is assigned one during processing.
type Task struct {
	ID      string          `json:"id"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// TaskResult is the outcome of processing a single task. Handler failures
// are carried in Status and Error; ProcessTask never propagates them.
type TaskResult struct {
	TaskID    string          `json:"task_id"`
	Status    TaskStatus      `json:"status"`
	Output    json.RawMessage `json:"output,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// ProcessTask runs task through the agent's role handler. It is safe for
// concurrent use and valid in every lifecycle state. Each task is isolated:
// a panicking or failing handler yields an error result for that task only.
func (a *Agent) ProcessTask(ctx context.Context, task Task) TaskResult {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}

	output, err := a.runHandler(ctx, task)
	result := TaskResult{
		TaskID:    task.ID,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		a.log.Warn("task failed", "task_id", task.ID, "kind", task.Kind, "err", err)
		result.Status = TaskError
		result.Error = err.Error()
		metrics.TasksTotal.WithLabelValues(string(TaskError)).Inc()
		return result
	}

	result.Status = TaskCompleted
	result.Output = output
	metrics.TasksTotal.WithLabelValues(string(TaskCompleted)).Inc()
	return result
}

func (a *Agent) runHandler(ctx context.Context, task Task) (out json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("task handler panic: %v", r)
		}
	}()
	return a.handler.Handle(ctx, task)
}
