package noop

import (
	"context"
	"testing"

	"github.com/delange/planetary-computer-batch/logger"
	"github.com/delange/planetary-computer-batch/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordsTasks(t *testing.T) {
	b := NewBackend(logger.NewLogger("noop", logger.DefaultConfig()))
	ctx := context.Background()

	require.NoError(t, b.CreateJob(ctx, "job-1", "pool"))
	require.NoError(t, b.AddTask(ctx, "job-1", &task.Task{ID: "t1"}))
	require.NoError(t, b.AddTask(ctx, "job-1", &task.Task{ID: "t2"}))

	require.Len(t, b.Tasks["job-1"], 2)
	assert.Equal(t, "t2", b.Tasks["job-1"][1].ID)
}
