// Package compute defines the interface batch platforms implement to run
// scene tasks.
package compute

import (
	"context"

	"github.com/delange/planetary-computer-batch/task"
)

// Backend is responsible for creating jobs and queueing their tasks. For
// Azure Batch this maps directly onto jobs and tasks. Platforms without
// a job concept (AWS Batch, Google Batch) submit one platform job per task
// and use the job ID to group them.
type Backend interface {
	// CreateJob creates the job tasks are added to. Creating a job which
	// already exists is reported by the platform as an error.
	CreateJob(ctx context.Context, jobID, poolID string) error
	// AddTask queues a task on the job.
	AddTask(ctx context.Context, jobID string, t *task.Task) error
}

// Waiter is implemented by backends which run tasks in process and can
// block until they finish.
type Waiter interface {
	Wait() error
}
