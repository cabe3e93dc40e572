package noop

import (
	"context"
	"sync"

	"github.com/delange/planetary-computer-batch/logger"
	"github.com/delange/planetary-computer-batch/task"
)

// NewBackend returns a new noop Backend instance.
func NewBackend(log *logger.Logger) *Backend {
	return &Backend{log: log, Tasks: map[string][]*task.Task{}}
}

// Backend is a compute backend that doesn't run anything. It records the
// jobs and tasks it receives, which is useful for testing and dry runs.
type Backend struct {
	log *logger.Logger

	mtx   sync.Mutex
	Tasks map[string][]*task.Task
}

// CreateJob records the job and returns nil.
func (b *Backend) CreateJob(ctx context.Context, jobID, poolID string) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if _, ok := b.Tasks[jobID]; !ok {
		b.Tasks[jobID] = nil
	}
	b.log.Info("Dry run: job not created", "jobID", jobID, "poolID", poolID)
	return nil
}

// AddTask records the task and returns nil.
func (b *Backend) AddTask(ctx context.Context, jobID string, t *task.Task) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.Tasks[jobID] = append(b.Tasks[jobID], t)
	b.log.Info("Dry run: task not submitted", "jobID", jobID, "taskID", t.ID, "commandLine", t.CommandLine)
	return nil
}
